// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package storage

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/softiron/motifbench/internal/logger"
	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/trace"
)

// s3Backend talks to an S3-compatible gateway (AWS S3 itself, or
// something RGW-like). The workspace string is
// "endpoint,accessKey,secretKey,bucket".
type s3Backend struct {
	client  *s3.S3
	bucket  string
	created bool
	tracer  trace.Recorder
	start   time.Time
}

func newS3Backend(tracer trace.Recorder, start time.Time) *s3Backend {
	return &s3Backend{tracer: tracer, start: start}
}

type s3Config struct {
	endpoint  string
	accessKey string
	secretKey string
	bucket    string
}

func parseS3Workspace(workspace string) (s3Config, error) {
	var cfg s3Config
	fields := splitN(workspace, ',', 4)
	if len(fields) != 4 {
		return cfg, fmt.Errorf("s3: workspace must be \"endpoint,accessKey,secretKey,bucket\", got %q", workspace)
	}
	cfg.endpoint, cfg.accessKey, cfg.secretKey, cfg.bucket = fields[0], fields[1], fields[2], fields[3]
	return cfg, nil
}

func (b *s3Backend) Create(workspace string, argv []string) error {
	cfg, err := b.connect(workspace)
	if err != nil {
		return err
	}

	exists, err := b.bucketExists(cfg.bucket)
	if err != nil {
		return fmt.Errorf("s3: check bucket %q: %w", cfg.bucket, err)
	}
	if exists {
		return fmt.Errorf("s3: bucket %q already exists", cfg.bucket)
	}

	logger.Infof("s3: creating bucket %v\n", cfg.bucket)
	if _, err := b.client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(cfg.bucket)}); err != nil {
		return fmt.Errorf("s3: create bucket %q: %w", cfg.bucket, err)
	}
	b.created = true
	return nil
}

// Open connects to a bucket a supervisor has already created with
// Create: every worker gets its own *s3.S3 client, since the SDK
// client isn't safe to share the way an IOContext handle wouldn't be
// either.
func (b *s3Backend) Open(workspace string, argv []string) error {
	_, err := b.connect(workspace)
	return err
}

func (b *s3Backend) connect(workspace string) (s3Config, error) {
	cfg, err := parseS3Workspace(workspace)
	if err != nil {
		return cfg, err
	}
	if cfg.accessKey == "" || cfg.secretKey == "" {
		return cfg, fmt.Errorf("s3: access key and secret key are required")
	}

	creds := credentials.NewStaticCredentials(cfg.accessKey, cfg.secretKey, "")
	awsConfig := aws.NewConfig().
		WithRegion("us-east-1").
		WithDisableSSL(true).
		WithEndpoint(cfg.endpoint).
		WithS3ForcePathStyle(true).
		WithCredentials(creds)

	sess, err := session.NewSession()
	if err != nil {
		return cfg, fmt.Errorf("s3: new session: %w", err)
	}

	logger.Infof("s3: connecting to %v\n", cfg.endpoint)
	b.client = s3.New(sess, awsConfig)
	b.bucket = cfg.bucket
	return cfg, nil
}

// bucketExists uses HeadBucket rather than trusting CreateBucket's
// own "already exists" error, because not every S3-compatible
// gateway (RGW in particular) implements that error correctly.
func (b *s3Backend) bucketExists(bucket string) (bool, error) {
	_, err := b.client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchBucket {
		return false, nil
	}
	return false, err
}

// objectExists is the same HeadObject trick, used to emulate
// exclusive create: the S3 API has no atomic create-if-absent PUT, so
// this is a best-effort, racy approximation good enough for a
// single-writer-per-identity workload where collisions indicate a
// bug rather than expected contention.
func (b *s3Backend) objectExists(key string) (bool, error) {
	_, err := b.client.HeadObject(&s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err == nil {
		return true, nil
	}
	if aerr, ok := err.(awserr.Error); ok && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
		return false, nil
	}
	return false, err
}

func (b *s3Backend) Destroy() error {
	if !b.created {
		return nil
	}
	if _, err := b.client.DeleteBucket(&s3.DeleteBucketInput{Bucket: aws.String(b.bucket)}); err != nil {
		return fmt.Errorf("s3: delete bucket %q: %w", b.bucket, err)
	}
	b.created = false
	return nil
}

func (b *s3Backend) Write(clientID, objID uint32, s *sample.Sample) error {
	name := ObjectName(clientID, objID)
	start := time.Now()

	exists, err := b.objectExists(name)
	if err != nil {
		return fmt.Errorf("s3: head %v: %w", name, err)
	}
	if exists {
		return fmt.Errorf("s3: object %v already exists", name)
	}

	_, err = b.client.PutObject(&s3.PutObjectInput{
		Body:   bytes.NewReader(s.Data()),
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("s3: put %v: %w", name, err)
	}

	b.tracer.Trace(trace.OpWrite, start.Sub(b.start), time.Since(start), name)
	return nil
}

func (b *s3Backend) Read(clientID, objID uint32, s *sample.Sample) error {
	name := ObjectName(clientID, objID)
	start := time.Now()

	resp, err := b.client.GetObject(&s3.GetObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(name)})
	if err != nil {
		return fmt.Errorf("s3: get %v: %w", name, err)
	}
	defer resp.Body.Close()

	buf := make([]byte, *resp.ContentLength)
	pos := 0
	for {
		n, rerr := resp.Body.Read(buf[pos:])
		pos += n
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("s3: read body of %v: %w", name, rerr)
		}
	}

	s.Read(buf)
	b.tracer.Trace(trace.OpRead, start.Sub(b.start), time.Since(start), name)
	return nil
}
