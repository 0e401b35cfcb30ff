package models

import "time"

type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Group struct {
	ID          int64
	Title       string
	Slug        string
	Description string
}

type Post struct {
	ID        int64
	AuthorID  int64
	GroupID   int64 // 0 = no group
	Text      string
	Image     string
	CreatedAt time.Time
	Author    string // username, filled in by joins
	Group     string // group title, filled in by joins
	GroupSlug string
}

type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Text      string
	CreatedAt time.Time
	Author    string
}

type Follow struct {
	UserID    int64
	AuthorID  int64
	CreatedAt time.Time
}
