package store

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Operation names accepted by MemoryAPI.FailNext.
const (
	OpListBuckets   = "ListBuckets"
	OpListObjectsV2 = "ListObjectsV2"
	OpGetObject     = "GetObject"
	OpHeadObject    = "HeadObject"
	OpPutObject     = "PutObject"
)

// MemoryAPI is an in-memory API for tests and local development. Objects
// are listed in lexicographic key order, as S3 does.
//
// It returns the same modeled error types as S3 for missing buckets and
// keys, so callers exercise the same error paths as against a real store.
type MemoryAPI struct {
	mu      sync.RWMutex
	buckets map[string]*memBucket
	failing map[string]error
	now     func() time.Time
}

type memBucket struct {
	created time.Time
	objects map[string]*memObject
}

type memObject struct {
	data         []byte
	contentType  string
	etag         string
	modified     time.Time
	storageClass string
	metadata     map[string]string
}

// NewMemoryAPI creates an empty in-memory store.
func NewMemoryAPI() *MemoryAPI {
	return &MemoryAPI{
		buckets: make(map[string]*memBucket),
		failing: make(map[string]error),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AddBucket creates bucket if it does not exist.
func (m *MemoryAPI) AddBucket(bucket string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addBucketLocked(bucket)
}

func (m *MemoryAPI) addBucketLocked(bucket string) *memBucket {
	b, ok := m.buckets[bucket]
	if !ok {
		b = &memBucket{created: m.now(), objects: make(map[string]*memObject)}
		m.buckets[bucket] = b
	}
	return b
}

// AddObject stores data under bucket/key, creating the bucket if needed.
func (m *MemoryAPI) AddObject(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.addBucketLocked(bucket)
	b.objects[key] = newMemObject(data, "", m.now())
}

// FailNext makes every subsequent call to op return err. A nil err clears
// the failure.
func (m *MemoryAPI) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failing, op)
		return
	}
	m.failing[op] = err
}

func (m *MemoryAPI) failure(op string) error {
	return m.failing[op]
}

func newMemObject(data []byte, contentType string, now time.Time) *memObject {
	sum := md5.Sum(data)
	return &memObject{
		data:         append([]byte(nil), data...),
		contentType:  contentType,
		etag:         `"` + hex.EncodeToString(sum[:]) + `"`,
		modified:     now,
		storageClass: DefaultStorageClass,
	}
}

// ListBuckets implements API.
func (m *MemoryAPI) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpListBuckets); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &s3.ListBucketsOutput{}
	for _, name := range names {
		out.Buckets = append(out.Buckets, types.Bucket{
			Name:         aws.String(name),
			CreationDate: aws.Time(m.buckets[name].created),
		})
	}
	return out, nil
}

// ListObjectsV2 implements API. MaxKeys defaults to 1000; continuation
// tokens are the last key of the previous page.
func (m *MemoryAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpListObjectsV2); err != nil {
		return nil, err
	}

	bucket := aws.ToString(params.Bucket)
	b, ok := m.buckets[bucket]
	if !ok {
		return nil, noSuchBucket()
	}

	prefix := aws.ToString(params.Prefix)
	after := aws.ToString(params.ContinuationToken)
	maxKeys := int(aws.ToInt32(params.MaxKeys))
	if params.MaxKeys == nil {
		maxKeys = MaxListKeys
	}

	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) && key > after {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	truncated := len(keys) > maxKeys
	if truncated {
		keys = keys[:maxKeys]
	}

	out := &s3.ListObjectsV2Output{
		Name:        aws.String(bucket),
		Prefix:      aws.String(prefix),
		MaxKeys:     aws.Int32(int32(maxKeys)),
		KeyCount:    aws.Int32(int32(len(keys))),
		IsTruncated: aws.Bool(truncated),
	}
	for _, key := range keys {
		obj := b.objects[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: aws.Time(obj.modified),
			ETag:         aws.String(obj.etag),
			StorageClass: types.ObjectStorageClass(obj.storageClass),
		})
	}
	if truncated && len(keys) > 0 {
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	return out, nil
}

// GetObject implements API.
func (m *MemoryAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpGetObject); err != nil {
		return nil, err
	}

	b, ok := m.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, noSuchBucket()
	}
	obj, ok := b.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}

	out := &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.modified),
		Metadata:      obj.metadata,
	}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	return out, nil
}

// HeadObject implements API. Like S3, a missing key yields a NotFound
// error without a message body.
func (m *MemoryAPI) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(OpHeadObject); err != nil {
		return nil, err
	}

	b, ok := m.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, &types.NotFound{}
	}
	obj, ok := b.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}

	out := &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.modified),
		StorageClass:  types.StorageClass(obj.storageClass),
		Metadata:      obj.metadata,
	}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	return out, nil
}

// PutObject implements API. The bucket must exist.
func (m *MemoryAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpPutObject); err != nil {
		return nil, err
	}

	b, ok := m.buckets[aws.ToString(params.Bucket)]
	if !ok {
		return nil, noSuchBucket()
	}

	var data []byte
	if params.Body != nil {
		var err error
		data, err = io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
	}

	obj := newMemObject(data, aws.ToString(params.ContentType), m.now())
	if len(params.Metadata) > 0 {
		obj.metadata = make(map[string]string, len(params.Metadata))
		for k, v := range params.Metadata {
			obj.metadata[k] = v
		}
	}
	b.objects[aws.ToString(params.Key)] = obj

	return &s3.PutObjectOutput{ETag: aws.String(obj.etag)}, nil
}

func noSuchBucket() error {
	return &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
}

// AccessDenied returns the service error S3 reports for a denied request.
func AccessDenied() error {
	return &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}
}

// Ensure MemoryAPI implements API
var _ API = (*MemoryAPI)(nil)
