package oss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"

	"github.com/longkeyy/go-dsloader/common/objstore"
	"github.com/longkeyy/go-dsloader/common/source"
)

// NewFileClient OSS 文件客户端
func NewFileClient() any {
	return objstore.NewFileClient(source.OSS, Open)
}

// Config 由数据源描述构建 SDK 配置
func Config(src *source.ObjectStoreSource) *oss.Config {
	provider := credentials.NewStaticCredentialsProvider(src.AccessKey, src.SecretKey)

	// OSS 以 endpoint 寻址，region 可为空
	cfg := oss.LoadDefaultConfig().
		WithCredentialsProvider(provider).
		WithRegion(src.Region).
		WithEndpoint(src.Endpoint)

	if src.UseCName {
		cfg = cfg.WithUseCName(true)
	}
	if src.PathStyle {
		cfg = cfg.WithUsePathStyle(true)
	}
	return cfg
}

// Open 创建存储桶适配器
func Open(src *source.ObjectStoreSource) (objstore.Bucket, error) {
	if src.Endpoint == "" {
		return nil, fmt.Errorf("oss endpoint is empty")
	}
	return &bucket{client: oss.NewClient(Config(src)), name: src.Bucket}, nil
}

type bucket struct {
	client *oss.Client
	name   string
}

func (b *bucket) Ping(ctx context.Context) error {
	_, err := b.client.GetBucketInfo(ctx, &oss.GetBucketInfoRequest{
		Bucket: oss.Ptr(b.name),
	})
	return trackError(err, b.name)
}

func (b *bucket) Head(ctx context.Context, key string) (objstore.Object, error) {
	result, err := b.client.HeadObject(ctx, &oss.HeadObjectRequest{
		Bucket: oss.Ptr(b.name),
		Key:    oss.Ptr(key),
	})
	if err != nil {
		return objstore.Object{}, trackError(err, key)
	}
	obj := objstore.Object{Key: key, Size: result.ContentLength}
	if result.LastModified != nil {
		obj.ModTime = *result.LastModified
	}
	return obj, nil
}

func (b *bucket) List(ctx context.Context, prefix, delimiter string) (objstore.Listing, error) {
	var listing objstore.Listing
	req := &oss.ListObjectsV2Request{
		Bucket: oss.Ptr(b.name),
		Prefix: oss.Ptr(prefix),
	}
	if delimiter != "" {
		req.Delimiter = oss.Ptr(delimiter)
	}

	for {
		result, err := b.client.ListObjectsV2(ctx, req)
		if err != nil {
			return listing, trackError(err, prefix)
		}
		for _, object := range result.Contents {
			obj := objstore.Object{Key: oss.ToString(object.Key), Size: object.Size}
			if object.LastModified != nil {
				obj.ModTime = *object.LastModified
			}
			listing.Objects = append(listing.Objects, obj)
		}
		for _, p := range result.CommonPrefixes {
			listing.Prefixes = append(listing.Prefixes, oss.ToString(p.Prefix))
		}

		if !result.IsTruncated {
			break
		}
		req.ContinuationToken = result.NextContinuationToken
	}
	return listing, nil
}

func (b *bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := b.client.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(b.name),
		Key:    oss.Ptr(key),
	})
	if err != nil {
		return nil, trackError(err, key)
	}
	return result.Body, nil
}

func (b *bucket) Put(ctx context.Context, key string, r io.Reader) error {
	_, err := b.client.PutObject(ctx, &oss.PutObjectRequest{
		Bucket: oss.Ptr(b.name),
		Key:    oss.Ptr(key),
		Body:   r,
	})
	return trackError(err, key)
}

func (b *bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &oss.DeleteObjectRequest{
		Bucket: oss.Ptr(b.name),
		Key:    oss.Ptr(key),
	})
	return trackError(err, key)
}

// trackError 将服务端错误转换为更明确的提示，404 映射为 os.ErrNotExist
func trackError(err error, object string) error {
	if err == nil {
		return nil
	}
	var serr *oss.ServiceError
	if errors.As(err, &serr) {
		switch {
		case serr.StatusCode == http.StatusNotFound:
			return fmt.Errorf("oss object %s: %w", object, os.ErrNotExist)
		case serr.Code == "InvalidAccessKeyId":
			return fmt.Errorf("the accessKey you configured is not correct: %w", err)
		case serr.Code == "SignatureDoesNotMatch":
			return fmt.Errorf("the secretKey you configured is not correct: %w", err)
		}
	}
	return fmt.Errorf("oss request for %s failed: %w", object, err)
}
