package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestObjectURLWithCustomEndpoint(t *testing.T) {
	s := &S3Store{bucket: "photos", region: "us-east-1", endpoint: "http://localhost:9000"}
	assert.Equal(t, "http://localhost:9000/photos/101/202/303/a.jpg", s.ObjectURL("101/202/303/a.jpg"))
}

func TestObjectURLAWSHosted(t *testing.T) {
	s := &S3Store{bucket: "photos", region: "eu-west-1"}
	assert.Equal(t, "https://photos.s3.eu-west-1.amazonaws.com/101/202/303/a.jpg", s.ObjectURL("101/202/303/a.jpg"))
}
