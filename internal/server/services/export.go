package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/todolist/internal/common"
	sc "github.com/dmitrijs2005/todolist/internal/server/config"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Export points at a stored todo-list snapshot.
type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExportService writes JSON snapshots of todo-lists to S3 compatible
// storage and hands out presigned download links.
type ExportService struct {
	options
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, opts ...Option) *ExportService {
	return &ExportService{options: newOptions("export", opts), db: db, repomanager: m, config: cfg}
}

func (s *ExportService) storageKey(todolistID string) string {
	d := s.now().UTC()
	return fmt.Sprintf("exports/%s/%d/%02d/%02d/%s.json", todolistID, d.Year(), d.Month(), d.Day(), uuid.NewString())
}

func (s *ExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export uploads the todo-list with its items and returns a link valid
// for ExportLinkTTL.
func (s *ExportService) Export(ctx context.Context, todolistID string) (*Export, error) {
	if err := uuid.Validate(todolistID); err != nil {
		return nil, common.ErrTodolistNotFound
	}

	snapshot, err := s.repomanager.Todolists(s.db).FindByIDWithItems(ctx, todolistID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTodolistNotFound
		}
		return nil, err
	}

	body, err := json.Marshal(exportDocument{
		Todolist:   snapshot.Todolist,
		Items:      snapshot.Items,
		ExportedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	bucket := s.config.S3Bucket
	key := s.storageKey(todolistID)

	if err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("s3 put: %w", err)
	}

	ttl := s.config.ExportLinkTTL
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("s3 presign: %w", err)
	}

	s.logger.Info(ctx, "todolist exported", "todolist_id", todolistID, "key", key, "items", len(snapshot.Items))
	return &Export{Key: key, URL: req.URL, ExpiresAt: s.now().Add(ttl)}, nil
}

type exportDocument struct {
	Todolist   *models.Todolist `json:"todolist"`
	Items      []*models.Item   `json:"items"`
	ExportedAt time.Time        `json:"exportedAt"`
}
