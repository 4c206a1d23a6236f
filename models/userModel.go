package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Fullname     string `json:"fullname"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	RestaurantID *uint  `json:"restaurantId"`
}

type LoginData struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
