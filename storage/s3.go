package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"
)

const (
	// AWSCredsEnvVar holds the json {"id": ..., "secret": ...} for the log bucket
	AWSCredsEnvVar = "AWSCREDS"
)

// S3Config locates the log bucket
type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
	// Credentials is the AWSCREDS json; empty means the default credential chain
	Credentials string
}

type awsCredentials struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// S3LogStore uploads logs to an s3 bucket
type S3LogStore struct {
	Bucket   string
	uploader *s3manager.Uploader
}

func loadAWSConfig(conf S3Config) (*aws.Config, error) {
	awsConfig := &aws.Config{
		Region: aws.String(conf.Region),
	}
	if conf.Endpoint != "" {
		awsConfig.Endpoint = aws.String(conf.Endpoint)
	}
	if conf.ForcePathStyle {
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if conf.Credentials != "" {
		creds := &awsCredentials{}
		if err := json.Unmarshal([]byte(conf.Credentials), creds); err != nil {
			return nil, fmt.Errorf("error unmarshalling aws secret: %v", err)
		}
		awsConfig.Credentials = credentials.NewStaticCredentials(creds.ID, creds.Secret, "")
	}
	return awsConfig, nil
}

// NewS3LogStore ..
func NewS3LogStore(conf S3Config) (*S3LogStore, error) {
	if conf.Bucket == "" {
		return nil, fmt.Errorf("missing s3 bucket name")
	}
	if conf.Credentials == "" {
		conf.Credentials = os.Getenv(AWSCredsEnvVar)
	}
	awsConfig, err := loadAWSConfig(conf)
	if err != nil {
		return nil, err
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %v", err)
	}
	return &S3LogStore{
		Bucket:   conf.Bucket,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// Upload puts localPath at s3://Bucket/key
func (s *S3LogStore) Upload(ctx context.Context, key, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key = strings.TrimPrefix(key, "/")
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file, %v", err)
	}
	location := fmt.Sprintf("s3://%v/%v", s.Bucket, key)
	logrus.Debugf("uploaded %v to %v", localPath, location)
	return location, nil
}
