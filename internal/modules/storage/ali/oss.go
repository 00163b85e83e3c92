package ali

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
	"github.com/google/uuid"
	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/tools"
)

const SupplierName = "ali_oss"

type OssClient struct {
	client     *oss.Client
	endpoint   string
	bucketName string
	directory  string
}

func NewOSS(config config.AliOss) *OssClient {
	credential := credentials.NewStaticCredentialsProvider(config.AccessKeyId, config.AccessKeySecret, "")
	cfg := oss.LoadDefaultConfig().
		WithCredentialsProvider(credential).
		WithEndpoint(config.Endpoint).WithRegion(config.Region)
	client := oss.NewClient(cfg)
	if client == nil {
		panic("create oss client failed")
	}
	return &OssClient{
		client:     client,
		endpoint:   config.Endpoint,
		bucketName: config.Bucket,
		directory:  config.Directory,
	}
}

func (o *OssClient) Name() string {
	return SupplierName
}

func (o *OssClient) Upload(fName string, file io.Reader) (string, error) {
	ext := filepath.Ext(fName)
	key := o.fullPath(uuid.New().String() + ext)
	return key, o.upload(fName, key, file)
}

func (o *OssClient) UploadImage(b []byte) (string, error) {
	fName := uuid.New().String() + "." + tools.DetectImageType(b).String()
	key := o.fullPath(fName)
	return key, o.upload(fName, key, bytes.NewReader(b))
}

func (o *OssClient) URL(key string, expire time.Duration) (string, error) {
	ret, err := o.client.Presign(context.TODO(), &oss.GetObjectRequest{Bucket: oss.Ptr(o.bucketName), Key: oss.Ptr(key)}, oss.PresignExpires(expire))
	if err != nil {
		return "", err
	}
	return ret.URL, nil
}

func (o *OssClient) Download(key string) ([]byte, error) {
	result, err := o.client.GetObject(context.TODO(), &oss.GetObjectRequest{Bucket: oss.Ptr(o.bucketName), Key: oss.Ptr(key)})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()
	return io.ReadAll(result.Body)
}

func (o *OssClient) Delete(key string) error {
	_, err := o.client.DeleteObject(context.TODO(), &oss.DeleteObjectRequest{Bucket: oss.Ptr(o.bucketName), Key: oss.Ptr(key)})
	return err
}

func (o *OssClient) fullPath(fName string) string {
	return o.directory + fName
}

func (o *OssClient) upload(fName, key string, reader io.Reader) error {
	request := &oss.PutObjectRequest{
		Bucket:             oss.Ptr(o.bucketName),
		Key:                oss.Ptr(key),
		Body:               reader,
		ContentDisposition: oss.Ptr(fmt.Sprintf("attachment; filename=\"%s\"", fName)),
	}
	_, err := o.client.PutObject(context.TODO(), request)
	if err != nil {
		return err
	}
	return nil
}
