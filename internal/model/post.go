package model

type Post struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"size:255" json:"description"`
	OwnerID     string `gorm:"index;not null" json:"owner_id"`
}
