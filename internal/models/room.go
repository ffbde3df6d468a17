package models

import "time"

type Room struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	IsPublic  bool      `json:"is_public"`
	OwnerID   int       `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	RoomID    int       `json:"room_id"`
	Content   string    `json:"content"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FileVersion is one uploaded revision of a shared file. The relay only
// announces these; the bytes themselves live wherever the upload handler
// put them.
type FileVersion struct {
	ID         int       `json:"id"`
	RoomID     int       `json:"room_id"`
	UploaderID int       `json:"uploader_id"`
	FileName   string    `json:"file_name"`
	Version    string    `json:"version"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Member struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type CreateRoomRequest struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

type InviteRequest struct {
	Email string `json:"email"`
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

type RecordFileRequest struct {
	FileName string `json:"file_name"`
	Version  string `json:"version"`
}
