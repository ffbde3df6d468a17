package services

import (
	"context"
	"fmt"

	"collab-relay/internal/models"
	"collab-relay/internal/store"
)

const defaultHistoryLimit = 50

type RoomService struct {
	store store.Store
}

func NewRoomService(st store.Store) *RoomService {
	return &RoomService{store: st}
}

func (s *RoomService) CreateRoom(ctx context.Context, req *models.CreateRoomRequest, ownerID int) (*models.Room, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("room name is required")
	}

	room, err := s.store.CreateRoom(ctx, req, ownerID)
	if err != nil {
		return nil, err
	}

	// The owner is always a member of their own room.
	if err := s.store.AddMembership(ctx, ownerID, room.ID); err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}

	return room, nil
}

func (s *RoomService) ListUserRooms(ctx context.Context, userID int) ([]*models.Room, error) {
	return s.store.ListUserRooms(ctx, userID)
}

func (s *RoomService) GetRoom(ctx context.Context, roomID int) (*models.Room, error) {
	return s.store.GetRoomByID(ctx, roomID)
}

func (s *RoomService) DeleteRoom(ctx context.Context, roomID, ownerID int) error {
	return s.store.DeleteRoom(ctx, roomID, ownerID)
}

func (s *RoomService) InviteUser(ctx context.Context, roomID, inviterID int, email string) error {
	// Get room to check permissions
	room, err := s.store.GetRoomByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("room not found")
	}

	// Check if inviter has permission
	if !room.IsPublic {
		canInvite := (room.OwnerID == inviterID)
		if !canInvite {
			isMember, err := s.store.IsMember(ctx, inviterID, roomID)
			if err != nil || !isMember {
				return fmt.Errorf("forbidden - not authorized to invite to this room")
			}
		}
	}

	// Get user by email
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user not found")
	}

	// Add membership
	return s.store.AddMembership(ctx, user.ID, roomID)
}

func (s *RoomService) LeaveRoom(ctx context.Context, userID, roomID int) error {
	isMember, err := s.store.IsMember(ctx, userID, roomID)
	if err != nil {
		return fmt.Errorf("database error")
	}
	if !isMember {
		return fmt.Errorf("not a member of this room")
	}

	return s.store.RemoveMembership(ctx, userID, roomID)
}

func (s *RoomService) GetRoomMembers(ctx context.Context, roomID, userID int) ([]*models.Member, error) {
	if err := s.requireAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}

	return s.store.GetRoomMembers(ctx, roomID)
}

// PostMessage stores a chat message for its room's history. Durability
// lives here, on the HTTP path; the relay only fans out.
func (s *RoomService) PostMessage(ctx context.Context, userID, roomID int, content string) (*models.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}

	if err := s.requireAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}

	return s.store.SaveMessage(ctx, userID, roomID, content)
}

func (s *RoomService) GetMessages(ctx context.Context, roomID, userID, limit int) ([]*models.Message, error) {
	if err := s.requireAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.LoadRecentMessages(ctx, roomID, limit)
}

// RecordFileVersion stores metadata for an uploaded file revision.
// Clients announce the upload to room peers separately, over the relay.
func (s *RoomService) RecordFileVersion(ctx context.Context, userID, roomID int, fileName, version string) (*models.FileVersion, error) {
	if fileName == "" || version == "" {
		return nil, fmt.Errorf("file name and version are required")
	}

	if err := s.requireAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}

	return s.store.RecordFileVersion(ctx, userID, roomID, fileName, version)
}

func (s *RoomService) ListFileVersions(ctx context.Context, roomID, userID int) ([]*models.FileVersion, error) {
	if err := s.requireAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}

	return s.store.ListFileVersions(ctx, roomID)
}

// CanUserAccessRoom is the authorization check the relay consults before
// honoring a join. Public rooms are open to any authenticated user;
// private rooms require a membership record.
func (s *RoomService) CanUserAccessRoom(ctx context.Context, userID, roomID int) (bool, error) {
	room, err := s.store.GetRoomByID(ctx, roomID)
	if err != nil {
		return false, err
	}

	if room.IsPublic {
		return true, nil
	}

	return s.store.IsMember(ctx, userID, roomID)
}

func (s *RoomService) requireAccess(ctx context.Context, userID, roomID int) error {
	canAccess, err := s.CanUserAccessRoom(ctx, userID, roomID)
	if err != nil {
		return fmt.Errorf("room not found")
	}
	if !canAccess {
		return fmt.Errorf("forbidden")
	}
	return nil
}
