package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"

	"led-display/internal/config"
	"led-display/internal/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Store keeps the document as one JSON object in an S3-compatible bucket
// (AWS, Backblaze B2, MinIO — anything that speaks path-style S3).
type S3Store struct {
	api    *s3.S3
	bucket string
	key    string
}

func NewS3Store(cfg *config.Config) *S3Store {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.Store.KeyID, cfg.Store.AppKey, ""),
		Endpoint:         aws.String(cfg.Store.Endpoint),
		Region:           aws.String(cfg.Store.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	sess := session.Must(session.NewSession(s3Config))

	return &S3Store{
		api:    s3.New(sess),
		bucket: cfg.Store.Bucket,
		key:    cfg.Store.ObjectKey,
	}
}

func (s *S3Store) Load(ctx context.Context) (*models.Snapshot, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			if aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound" {
				return nil, nil
			}
		}
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("⚠️ Snapshot object %s/%s is malformed, treating as empty: %v", s.bucket, s.key, err)
		return nil, nil
	}
	if snap.Slides == nil {
		return nil, nil
	}
	return &snap, nil
}

func (s *S3Store) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}
