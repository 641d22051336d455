package models

import "time"

// News is an article shown on the news pages.
type News struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	ImageURL      string    `gorm:"size:300" json:"image_url"`
	PublishedDate time.Time `gorm:"autoCreateTime;index" json:"published_date"`
	IsPublished   bool      `gorm:"default:true;index" json:"is_published"`
}
