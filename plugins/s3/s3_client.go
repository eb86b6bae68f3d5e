package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/longkeyy/go-dsloader/common/objstore"
	"github.com/longkeyy/go-dsloader/common/source"
)

// DefaultRegion 未指定 region 时使用，兼容 MinIO 等自建服务
const DefaultRegion = "us-east-1"

// NewFileClient S3 文件客户端
func NewFileClient() any {
	return objstore.NewFileClient(source.S3, Open)
}

// Options 由数据源描述构建 SDK 选项
func Options(src *source.ObjectStoreSource) s3.Options {
	options := s3.Options{
		Region:       src.Region,
		UsePathStyle: src.PathStyle,
	}
	if options.Region == "" {
		options.Region = DefaultRegion
	}
	if src.AccessKey != "" {
		options.Credentials = credentials.NewStaticCredentialsProvider(src.AccessKey, src.SecretKey, "")
	}
	if src.Endpoint != "" {
		options.BaseEndpoint = aws.String(src.Endpoint)
	}
	return options
}

// Open 创建存储桶适配器
func Open(src *source.ObjectStoreSource) (objstore.Bucket, error) {
	return &bucket{client: s3.New(Options(src)), name: src.Bucket}, nil
}

type bucket struct {
	client *s3.Client
	name   string
}

func (b *bucket) Ping(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.name),
	})
	return wrapError(err, b.name)
}

func (b *bucket) Head(ctx context.Context, key string) (objstore.Object, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return objstore.Object{}, wrapError(err, key)
	}
	return objstore.Object{
		Key:     key,
		Size:    aws.ToInt64(out.ContentLength),
		ModTime: aws.ToTime(out.LastModified),
	}, nil
}

func (b *bucket) List(ctx context.Context, prefix, delimiter string) (objstore.Listing, error) {
	var listing objstore.Listing
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(prefix),
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return listing, wrapError(err, prefix)
		}
		for _, object := range page.Contents {
			listing.Objects = append(listing.Objects, objstore.Object{
				Key:     aws.ToString(object.Key),
				Size:    aws.ToInt64(object.Size),
				ModTime: aws.ToTime(object.LastModified),
			})
		}
		for _, p := range page.CommonPrefixes {
			listing.Prefixes = append(listing.Prefixes, aws.ToString(p.Prefix))
		}
	}
	return listing, nil
}

func (b *bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapError(err, key)
	}
	return out.Body, nil
}

// Put 非 Seeker 的输入先读入内存，SDK 签名需要可重放的请求体
func (b *bucket) Put(ctx context.Context, key string, r io.Reader) error {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read body for %s: %w", key, err)
		}
		body = bytes.NewReader(data)
	}
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
		Body:   body,
	})
	return wrapError(err, key)
}

func (b *bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	return wrapError(err, key)
}

// wrapError NotFound 与 NoSuchKey 映射为 os.ErrNotExist
func wrapError(err error, object string) error {
	if err == nil {
		return nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("s3 object %s: %w", object, os.ErrNotExist)
	}
	var nk *types.NoSuchKey
	if errors.As(err, &nk) {
		return fmt.Errorf("s3 object %s: %w", object, os.ErrNotExist)
	}
	var nb *types.NoSuchBucket
	if errors.As(err, &nb) {
		return fmt.Errorf("s3 bucket %s does not exist: %w", object, err)
	}
	return fmt.Errorf("s3 request for %s failed: %w", object, err)
}
