package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bmadforge/runtime/pkg/types"
)

// S3Backend is the object-store adapter (§4.9): documents under
// documents/<path>.json, session state under sessions/<id>.json, each a
// docRecord/SessionState JSON blob, mirroring FileBackend's on-disk layout
// one level up in an S3 bucket instead of a local directory.
type S3Backend struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Backend builds a backend over bucket, with all keys namespaced under
// prefix (may be empty).
func NewS3Backend(ctx context.Context, bucket, prefix string) (*S3Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &S3Backend{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (b *S3Backend) Initialize(ctx context.Context) error { return nil }
func (b *S3Backend) Close(ctx context.Context) error      { return nil }

func (b *S3Backend) key(parts ...string) string {
	all := append([]string{b.prefix}, parts...)
	var kept []string
	for _, p := range all {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

func (b *S3Backend) docKey(path string) string {
	return b.key("documents", strings.TrimPrefix(path, "/")+".json")
}

func (b *S3Backend) sessionKey(id string) string {
	return b.key("sessions", id+".json")
}

func (b *S3Backend) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (b *S3Backend) getJSON(ctx context.Context, key string, v any) error {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return ErrNotFound
		}
		return err
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (b *S3Backend) Save(ctx context.Context, doc types.Document, metadata types.StorageMetadata) (*types.StorageResult, error) {
	metadata.Path = doc.Path
	metadata.Size = len(doc.Content)
	if metadata.MimeType == "" {
		metadata.MimeType = mimeByExtension(doc.Path)
	}
	if metadata.Timestamp == 0 {
		metadata.Timestamp = time.Now().UnixMilli()
	}
	if err := b.putJSON(ctx, b.docKey(doc.Path), docRecord{Document: doc, Metadata: metadata}); err != nil {
		return nil, err
	}
	return &types.StorageResult{Path: doc.Path, Metadata: metadata}, nil
}

func (b *S3Backend) SaveBatch(ctx context.Context, docs []types.Document, metas []types.StorageMetadata) ([]types.StorageResult, error) {
	out := make([]types.StorageResult, 0, len(docs))
	for i, doc := range docs {
		var m types.StorageMetadata
		if i < len(metas) {
			m = metas[i]
		}
		res, err := b.Save(ctx, doc, m)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, nil
}

func (b *S3Backend) Load(ctx context.Context, path string) (*types.Document, error) {
	var rec docRecord
	if err := b.getJSON(ctx, b.docKey(path), &rec); err != nil {
		return nil, err
	}
	return &rec.Document, nil
}

func (b *S3Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(b.docKey(path))})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *S3Backend) Delete(ctx context.Context, path string) (bool, error) {
	existed, err := b.Exists(ctx, path)
	if err != nil {
		return false, err
	}
	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(b.docKey(path))})
	if err != nil {
		return false, err
	}
	return existed, nil
}

func (b *S3Backend) List(ctx context.Context, opts types.StorageQueryOptions) (*types.StorageListResult, error) {
	prefix := b.key("documents") + "/"
	var matched []string

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			var rec docRecord
			if err := b.getJSON(ctx, aws.ToString(obj.Key), &rec); err != nil {
				continue
			}
			if matchesQuery(rec.Metadata, opts) {
				matched = append(matched, rec.Document.Path)
			}
		}
	}

	sort.Strings(matched)
	total := len(matched)
	matched = paginate(matched, opts.Offset, opts.Limit)
	return &types.StorageListResult{Paths: matched, Total: total}, nil
}

func (b *S3Backend) GetMetadata(ctx context.Context, path string) (*types.StorageMetadata, error) {
	var rec docRecord
	if err := b.getJSON(ctx, b.docKey(path), &rec); err != nil {
		return nil, err
	}
	return &rec.Metadata, nil
}

// GetURL returns a presigned GET URL valid for expiresSeconds (default 900).
func (b *S3Backend) GetURL(ctx context.Context, path string, expiresSeconds int) (string, error) {
	if expiresSeconds <= 0 {
		expiresSeconds = 900
	}
	presigner := s3.NewPresignClient(b.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.docKey(path)),
	}, s3.WithPresignExpires(time.Duration(expiresSeconds)*time.Second))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (b *S3Backend) SaveSessionState(ctx context.Context, state types.SessionState) error {
	return b.putJSON(ctx, b.sessionKey(state.ID), state)
}

func (b *S3Backend) LoadSessionState(ctx context.Context, id string) (*types.SessionState, error) {
	var state types.SessionState
	if err := b.getJSON(ctx, b.sessionKey(id), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (b *S3Backend) ListSessions(ctx context.Context, opts types.StorageQueryOptions) (*types.SessionListResult, error) {
	prefix := b.key("sessions") + "/"
	var matched []types.SessionState

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			var state types.SessionState
			if err := b.getJSON(ctx, aws.ToString(obj.Key), &state); err != nil {
				continue
			}
			if opts.AgentID == "" || state.AgentID == opts.AgentID {
				matched = append(matched, state)
			}
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt < matched[j].CreatedAt })
	total := len(matched)
	matched = paginateSessions(matched, opts.Offset, opts.Limit)
	return &types.SessionListResult{Sessions: matched, Total: total}, nil
}

func (b *S3Backend) DeleteSession(ctx context.Context, id string) (bool, error) {
	key := b.sessionKey(id)
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	existed := err == nil
	if _, delErr := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)}); delErr != nil {
		return false, delErr
	}
	return existed, nil
}

func (b *S3Backend) SaveDocuments(ctx context.Context, sessionID string, docs []types.Document) error {
	for _, doc := range docs {
		if _, err := b.Save(ctx, doc, types.StorageMetadata{SessionID: sessionID}); err != nil {
			return err
		}
	}
	return nil
}

func paginateSessions(items []types.SessionState, offset, limit int) []types.SessionState {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
