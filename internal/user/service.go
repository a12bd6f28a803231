package user

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterUser expects fields email, password and optionally full_name, address, role.
func (s *Service) RegisterUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	email := NormalizeEmail(fields["email"].GetStringValue())
	password := fields["password"].GetStringValue()
	if email == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}
	role, err := ToRole(fields["role"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		log.WithError(err).Error("register user")
		return nil, status.Error(codes.Internal, "lookup error")
	}
	if exists {
		return nil, status.Error(codes.AlreadyExists, "user exists (email)")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "hash error: %v", err)
	}
	u := &User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fields["full_name"].GetStringValue(),
		Address:      fields["address"].GetStringValue(),
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, status.Error(codes.AlreadyExists, "user exists (email)")
		}
		log.WithError(err).Error("register user")
		return nil, status.Error(codes.Internal, "create error")
	}

	log.WithFields(log.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	return toStruct(u)
}

func (s *Service) GetUser(ctx context.Context, in *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if in.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	u, err := s.repo.GetByID(ctx, in.GetValue())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		log.WithError(err).Error("get user")
		return nil, status.Error(codes.Internal, "get error")
	}
	return toStruct(u)
}

// ValidateUser reports whether an active user with the id exists.
func (s *Service) ValidateUser(ctx context.Context, in *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	if in.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	_, err := s.repo.GetByID(ctx, in.GetValue())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return wrapperspb.Bool(false), nil
		}
		log.WithError(err).Error("validate user")
		return nil, status.Error(codes.Internal, "validate error")
	}
	return wrapperspb.Bool(true), nil
}

// DeleteUser anonymizes the user; their orders are kept.
func (s *Service) DeleteUser(ctx context.Context, in *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if in.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	ok, err := s.repo.Anonymize(ctx, in.GetValue())
	if err != nil {
		log.WithError(err).Error("delete user")
		return nil, status.Error(codes.Internal, "delete error")
	}
	if !ok {
		return nil, status.Error(codes.NotFound, "user not found")
	}
	log.WithField("user_id", in.GetValue()).Info("user anonymized")
	return &emptypb.Empty{}, nil
}

func toStruct(u *User) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"full_name":  u.FullName,
		"address":    u.Address,
		"role":       string(u.Role),
		"created_at": u.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode user: %v", err)
	}
	return out, nil
}

func fromStruct(s *structpb.Struct) (*User, error) {
	fields := s.GetFields()
	u := &User{
		ID:       int64(fields["id"].GetNumberValue()),
		Email:    fields["email"].GetStringValue(),
		FullName: fields["full_name"].GetStringValue(),
		Address:  fields["address"].GetStringValue(),
		Role:     Role(fields["role"].GetStringValue()),
	}
	if ts := fields["created_at"].GetStringValue(); ts != "" {
		createdAt, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, err
		}
		u.CreatedAt = createdAt
	}
	return u, nil
}
