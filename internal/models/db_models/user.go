package db_models

type User struct {
	BaseModel
	Email string `gorm:"uniqueIndex;not null"`
	Name  string
}
