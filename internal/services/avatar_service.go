package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const avatarBucket = "saasbase-avatars"

// AvatarService stores profile avatars in object storage.
type AvatarService interface {
	UploadAvatar(ctx context.Context, userID uuid.UUID, reader io.Reader, size int64, contentType string) (string, error)
	AvatarURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	DeleteAvatar(ctx context.Context, key string) error
	EnsureBucketExists(ctx context.Context) error
}

type avatarService struct {
	client *minio.Client
}

func NewAvatarService(endpoint, accessKey, secretKey string, useSSL bool) (AvatarService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &avatarService{client: client}, nil
}

func (s *avatarService) UploadAvatar(ctx context.Context, userID uuid.UUID, reader io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("avatars/%s", userID.String())
	_, err := s.client.PutObject(ctx, avatarBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *avatarService) AvatarURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, avatarBucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (s *avatarService) DeleteAvatar(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, avatarBucket, key, minio.RemoveObjectOptions{})
}

func (s *avatarService) EnsureBucketExists(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, avatarBucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, avatarBucket, minio.MakeBucketOptions{})
	}
	return nil
}
