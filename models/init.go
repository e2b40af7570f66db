package models

import "gorm.io/gorm"

// CreateDefaultSalesTeam seeds the roster with a single admin so that the
// dashboard is reachable on a fresh database. The LINE user id is a
// placeholder until the real admin links their account.
func CreateDefaultSalesTeam(db *gorm.DB) error {
	defaultReps := []SalesRep{
		{
			LineUserID: "U0000000000000000000000000000000",
			Name:       "admin",
			Role:       RoleAdmin,
			Active:     true,
		},
	}
	for _, rep := range defaultReps {
		if err := db.FirstOrCreate(&rep, "line_user_id = ?", rep.LineUserID).Error; err != nil {
			return err
		}
	}
	return nil
}
