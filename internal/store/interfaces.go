package store

import (
	"context"

	"collab-relay/internal/models"
)

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, req *models.CreateRoomRequest, ownerID int) (*models.Room, error)
	GetRoomByID(ctx context.Context, id int) (*models.Room, error)
	ListUserRooms(ctx context.Context, userID int) ([]*models.Room, error)
	DeleteRoom(ctx context.Context, roomID, ownerID int) error
}

type MembershipRepository interface {
	AddMembership(ctx context.Context, userID, roomID int) error
	RemoveMembership(ctx context.Context, userID, roomID int) error
	IsMember(ctx context.Context, userID, roomID int) (bool, error)
	GetRoomMembers(ctx context.Context, roomID int) ([]*models.Member, error)
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, userID, roomID int, content string) (*models.Message, error)
	LoadRecentMessages(ctx context.Context, roomID, limit int) ([]*models.Message, error)
}

type FileRepository interface {
	RecordFileVersion(ctx context.Context, uploaderID, roomID int, fileName, version string) (*models.FileVersion, error)
	ListFileVersions(ctx context.Context, roomID int) ([]*models.FileVersion, error)
}

type Store interface {
	UserRepository
	RoomRepository
	MembershipRepository
	MessageRepository
	FileRepository
	Close() error
}
