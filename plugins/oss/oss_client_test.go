package oss

import (
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/source"
)

func TestConfig(t *testing.T) {
	cfg := Config(&source.ObjectStoreSource{
		Type:     source.OSS,
		Endpoint: "oss-cn-hangzhou.aliyuncs.com",
		Region:   "cn-hangzhou",
		Bucket:   "b",
		UseCName: true,
	})
	require.NotNil(t, cfg.Endpoint)
	assert.Equal(t, "oss-cn-hangzhou.aliyuncs.com", *cfg.Endpoint)
	require.NotNil(t, cfg.Region)
	assert.Equal(t, "cn-hangzhou", *cfg.Region)
	require.NotNil(t, cfg.UseCName)
	assert.True(t, *cfg.UseCName)
}

func TestTrackError(t *testing.T) {
	assert.NoError(t, trackError(nil, "k"))

	err := trackError(&oss.ServiceError{StatusCode: http.StatusNotFound, Code: "NoSuchKey"}, "k")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	err = trackError(&oss.ServiceError{StatusCode: http.StatusForbidden, Code: "InvalidAccessKeyId"}, "k")
	assert.False(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "accessKey")
}

func TestNewFileClient(t *testing.T) {
	_, ok := NewFileClient().(client.FileClient)
	assert.True(t, ok)

	_, err := Open(&source.ObjectStoreSource{Type: source.OSS, Bucket: "b"})
	assert.Error(t, err)
}
