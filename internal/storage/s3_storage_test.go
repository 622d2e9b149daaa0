package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/ikkim/gadgetshop-backend/config"
	"github.com/stretchr/testify/assert"
)

func TestObjectURL_UsesBaseURL(t *testing.T) {
	s := NewS3Storage(context.Background(), config.S3Config{
		Region:          "eu-central-1",
		Bucket:          "media",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BaseURL:         "https://cdn.example.com/",
	})

	assert.Equal(t, "https://cdn.example.com/notebooks/a.jpg", s.ObjectURL("notebooks/a.jpg"))
}

func TestObjectURL_FallsBackToBucketURL(t *testing.T) {
	s := NewS3Storage(context.Background(), config.S3Config{
		Region:          "eu-central-1",
		Bucket:          "media",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})

	assert.Equal(t, "https://media.s3.eu-central-1.amazonaws.com/smartphones/b.png", s.ObjectURL("smartphones/b.png"))
}

func TestNewObjectKey(t *testing.T) {
	a := NewObjectKey("notebooks", ".jpg")
	b := NewObjectKey("notebooks", ".jpg")

	assert.True(t, strings.HasPrefix(a, "notebooks/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.NotEqual(t, a, b)
}
