/*
Copyright © 2024 the co2map authors.
This file is part of co2map.

co2map is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

co2map is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with co2map.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cloud moves co2map input and output files between the local
// file system and remote storage.
package cloud

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
)

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// IsRemote returns whether path is a blob or an http(s) URL.
func IsRemote(path string) bool {
	return IsBlob(path) || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// OpenBucket opens the bucket named by location, which has the form
// provider://bucket[/key]. Any key is ignored. Providers are "file"
// (a directory relative to the working directory), "gs" and "s3".
func OpenBucket(ctx context.Context, location string) (*blob.Bucket, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("cloud: opening bucket: %v", err)
	}
	name := u.Hostname()
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(name)
	case "gs":
		return gsBucket(ctx, name)
	case "s3":
		return s3Bucket(ctx, name)
	default:
		return nil, fmt.Errorf("cloud: opening bucket: invalid provider %q in %s", u.Scheme, location)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// Application default credentials.
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket reads credentials from AWS_ACCESS_KEY_ID and
// AWS_SECRET_ACCESS_KEY. The region comes from AWS_REGION.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, fmt.Errorf("cloud: creating AWS session: %v", err)
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// splitBlob returns the bucket name and key of a blob path.
func splitBlob(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("cloud: parsing blob path %s: %v", path, err)
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
