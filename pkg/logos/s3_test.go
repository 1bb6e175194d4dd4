package logos

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockObjectAPI struct {
	objects      map[string][]byte
	contentTypes map[string]string
	gets         int
	err          error
}

func newMockObjectAPI() *mockObjectAPI {
	return &mockObjectAPI{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (m *mockObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*in.Key] = data
	m.contentTypes[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (m *mockObjectAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockObjectAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockObjectAPI) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Store_PutGet(t *testing.T) {
	api := newMockObjectAPI()
	store := &S3Store{api: api, bucket: "logos"}
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "logos/a/b.png", []byte("png-bytes"), "image/png"))
	assert.Equal(t, "image/png", api.contentTypes["logos/a/b.png"])

	data, err := store.Get(ctx, "logos/a/b.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestS3Store_GetMissing(t *testing.T) {
	store := &S3Store{api: newMockObjectAPI(), bucket: "logos"}
	_, err := store.Get(context.Background(), "logos/none.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_Errors(t *testing.T) {
	api := newMockObjectAPI()
	api.err = errors.New("connection refused")
	store := &S3Store{api: api, bucket: "logos"}
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "k", []byte("x"), "image/png"))
	_, err := store.Get(ctx, "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Delete(ctx, "k"))
	assert.Error(t, store.HealthCheck(ctx))
}

func TestS3Store_Delete(t *testing.T) {
	api := newMockObjectAPI()
	store := &S3Store{api: api, bucket: "logos"}
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("x"), "image/png"))
	require.NoError(t, store.Delete(ctx, "k"))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.HealthCheck(ctx))
}
