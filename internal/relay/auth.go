package relay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// Authorizer adds credentials to an outbound request. body is the exact
// request payload.
type Authorizer interface {
	Authorize(ctx context.Context, req *http.Request, body []byte) error
}

// SigV4 signs requests with AWS Signature Version 4.
type SigV4 struct {
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	service     string
	region      string
	now         func() time.Time
}

// NewSigV4 creates a signer for the runtime service in region.
func NewSigV4(credentials aws.CredentialsProvider, region string) *SigV4 {
	return &SigV4{
		credentials: credentials,
		signer:      v4.NewSigner(),
		service:     ServiceName,
		region:      region,
		now:         time.Now,
	}
}

// Authorize implements Authorizer.
func (s *SigV4) Authorize(ctx context.Context, req *http.Request, body []byte) error {
	if s.credentials == nil {
		return errors.New("no AWS credentials configured")
	}
	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieve credentials: %w", err)
	}
	sum := sha256.Sum256(body)
	return s.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), s.service, s.region, s.now().UTC())
}

// Bearer authorizes requests with a static bearer token.
type Bearer string

// Authorize implements Authorizer.
func (b Bearer) Authorize(_ context.Context, req *http.Request, _ []byte) error {
	if b == "" {
		return errors.New("empty bearer token")
	}
	req.Header.Set("Authorization", "Bearer "+string(b))
	return nil
}

var (
	_ Authorizer = (*SigV4)(nil)
	_ Authorizer = Bearer("")
)
