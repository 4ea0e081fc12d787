package radosgw

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/thannaske/rgwreport/pkg/models"
)

// AdminAPISource collects bucket stats through the RGW Admin API using
// SigV4-signed requests. The credentials must belong to a user with the
// "buckets=read" admin capability.
type AdminAPISource struct {
	endpoint string
	region   string
	creds    aws.CredentialsProvider
	client   *http.Client
}

// NewAdminAPISource creates an Admin API stats source from the
// configured endpoint and keys.
func NewAdminAPISource(cfg models.Config) (*AdminAPISource, error) {
	awsCfg, err := config.LoadDefaultConfig(
		context.TODO(),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		),
		config.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS SDK configuration: %w", err)
	}

	return &AdminAPISource{
		endpoint: cfg.S3Endpoint,
		region:   cfg.S3Region,
		creds:    awsCfg.Credentials,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// BucketStats fetches the stats of all buckets in a single
// `GET /admin/bucket?stats=true` call.
func (s *AdminAPISource) BucketStats(ctx context.Context) ([]Stats, error) {
	query := url.Values{}
	query.Set("stats", "true")

	body, err := s.signedRequest(ctx, http.MethodGet, "/admin/bucket", query)
	if err != nil {
		return nil, fmt.Errorf("listing bucket stats: %w", err)
	}

	var stats []Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("decoding admin API response: %w", err)
	}
	return stats, nil
}

// signedRequest executes an Admin API request with a SigV4 signature.
// RGW accepts the "s3" service name for admin operations.
func (s *AdminAPISource) signedRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	parsed, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint URL: %w", err)
	}
	parsed.Path = path
	parsed.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, parsed.String(), bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	payloadHash := hex.EncodeToString(sha256.New().Sum(nil))
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	creds, err := s.creds.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieving credentials: %w", err)
	}

	signer := v4.NewSigner()
	if err := signer.SignHTTP(ctx, creds, req, payloadHash, "s3", s.region, time.Now()); err != nil {
		return nil, fmt.Errorf("signing request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("admin API request failed with status %d: %s", resp.StatusCode, respBody)
	}
	return respBody, nil
}
