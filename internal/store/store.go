package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/justapithecus/s3lake/lake"
)

// DefaultStorageClass is reported when the store omits a storage class.
const DefaultStorageClass = "STANDARD"

// MaxListKeys is the largest page a single listing call returns.
const MaxListKeys = 1000

// Bucket is one entry of a bucket listing.
type Bucket struct {
	Name         string
	CreationDate time.Time
}

// ObjectInfo is one entry of an object listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	StorageClass string
	ETag         string
}

// ObjectHead is the full set of store-level attributes of one object.
// Optional string attributes are empty when the store did not report them.
type ObjectHead struct {
	ObjectInfo

	ContentType          string
	ServerSideEncryption string
	Metadata             map[string]string
	CacheControl         string
	ContentDisposition   string
	ContentEncoding      string
	ContentLanguage      string
}

// ListOptions configures a listing.
type ListOptions struct {
	// Limit caps the number of objects returned. Values outside
	// 1..MaxListKeys are clamped to MaxListKeys.
	Limit int
}

// ListPage is the result of one listing call.
type ListPage struct {
	Objects []ObjectInfo

	// Truncated is the store's own report that more keys match. It is
	// independent of the local Limit cap: a page cut down to Limit by
	// Store is not marked truncated unless the store said so.
	Truncated bool
}

// Store is the object-store client used by the tool catalog.
type Store struct {
	api      API
	checksum lake.Checksum // nil disables verification
}

// Option configures a Store.
type Option func(*Store)

// WithChecksumVerification verifies fetched bodies against single-part
// ETags using c. Objects with multipart ETags are not verified.
func WithChecksumVerification(c lake.Checksum) Option {
	return func(s *Store) {
		s.checksum = c
	}
}

// New creates a Store over api.
func New(api API, opts ...Option) *Store {
	s := &Store{api: api}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Buckets lists all accessible buckets.
func (s *Store) Buckets(ctx context.Context) ([]Bucket, error) {
	out, err := s.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, storeError(err)
	}

	buckets := make([]Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		buckets = append(buckets, Bucket{
			Name:         aws.ToString(b.Name),
			CreationDate: aws.ToTime(b.CreationDate),
		})
	}
	return buckets, nil
}

// List returns up to opts.Limit objects under prefix in store order.
func (s *Store) List(ctx context.Context, bucket, prefix string, opts ListOptions) (ListPage, error) {
	limit := opts.Limit
	if limit <= 0 || limit > MaxListKeys {
		limit = MaxListKeys
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(int32(limit)),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	out, err := s.api.ListObjectsV2(ctx, input)
	if err != nil {
		return ListPage{}, storeError(err)
	}

	contents := out.Contents
	if len(contents) > limit {
		contents = contents[:limit]
	}

	objects := make([]ObjectInfo, 0, len(contents))
	for _, obj := range contents {
		objects = append(objects, ObjectInfo{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			StorageClass: storageClass(string(obj.StorageClass)),
			ETag:         lake.TrimETag(aws.ToString(obj.ETag)),
		})
	}

	return ListPage{
		Objects:   objects,
		Truncated: aws.ToBool(out.IsTruncated),
	}, nil
}

// Read fetches the whole object into memory.
func (s *Store) Read(ctx context.Context, ref lake.ObjectRef) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, storeError(err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, lake.NewError(lake.KindStore, fmt.Sprintf("failed to read object %s: %v", ref, err), err)
	}

	if err := s.verify(ref, aws.ToString(out.ETag), data); err != nil {
		return nil, err
	}
	return data, nil
}

// Head fetches the object's attributes without its body.
func (s *Store) Head(ctx context.Context, ref lake.ObjectRef) (ObjectHead, error) {
	out, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return ObjectHead{}, storeError(err)
	}

	return ObjectHead{
		ObjectInfo: ObjectInfo{
			Key:          ref.Key,
			Size:         aws.ToInt64(out.ContentLength),
			LastModified: aws.ToTime(out.LastModified),
			StorageClass: storageClass(string(out.StorageClass)),
			ETag:         lake.TrimETag(aws.ToString(out.ETag)),
		},
		ContentType:          aws.ToString(out.ContentType),
		ServerSideEncryption: string(out.ServerSideEncryption),
		Metadata:             out.Metadata,
		CacheControl:         aws.ToString(out.CacheControl),
		ContentDisposition:   aws.ToString(out.ContentDisposition),
		ContentEncoding:      aws.ToString(out.ContentEncoding),
		ContentLanguage:      aws.ToString(out.ContentLanguage),
	}, nil
}

// Put uploads data to ref.
func (s *Store) Put(ctx context.Context, ref lake.ObjectRef, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.api.PutObject(ctx, input); err != nil {
		return storeError(err)
	}
	return nil
}

// Probe checks that the store is reachable with the current credentials.
func (s *Store) Probe(ctx context.Context) error {
	_, err := s.Buckets(ctx)
	return err
}

func (s *Store) verify(ref lake.ObjectRef, etag string, data []byte) error {
	if s.checksum == nil || !lake.IsDigestETag(etag) {
		return nil
	}

	h := s.checksum.NewHasher()
	_, _ = h.Write(data)
	if got, want := h.Sum(), lake.TrimETag(etag); got != want {
		return lake.NewError(lake.KindStore,
			fmt.Sprintf("checksum mismatch for %s: %s %s, etag %s", ref, s.checksum.Name(), got, want), nil)
	}
	return nil
}

func storageClass(class string) string {
	if class == "" {
		return DefaultStorageClass
	}
	return class
}

// storeError classifies an SDK error. Service errors surface the store's
// own message; anything else (network, cancellation) keeps its text.
func storeError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.ErrorMessage()
		if msg == "" {
			msg = apiErr.ErrorCode()
		}
		return lake.NewError(lake.KindStore, "AWS error: "+msg, err)
	}
	return lake.NewError(lake.KindStore, err.Error(), err)
}

// ErrorCode returns the store error code carried by err, or "".
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
