package db_models

type Course struct {
	BaseModel
	Title       string `gorm:"not null"`
	Description string
	PriceMinor  int64  // minor currency units, 0 means free
	Currency    string `gorm:"size:3;default:'KRW'"`
	IsActive    bool   `gorm:"default:true"`
}
