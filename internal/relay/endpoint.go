package relay

import (
	"fmt"
	"net/url"
	"strings"
)

// ServiceName is the signing name of the agent runtime service.
const ServiceName = "bedrock-agentcore"

// ARN is a parsed runtime ARN: arn:partition:service:region:account:resource.
type ARN struct {
	Partition string
	Service   string
	Region    string
	AccountID string
	Resource  string
}

// ParseARN splits arn into its fields.
func ParseARN(arn string) (ARN, error) {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return ARN{}, fmt.Errorf("relay: malformed ARN %q", arn)
	}
	a := ARN{
		Partition: parts[1],
		Service:   parts[2],
		Region:    parts[3],
		AccountID: parts[4],
		Resource:  parts[5],
	}
	if a.Region == "" || a.Resource == "" {
		return ARN{}, fmt.Errorf("relay: ARN %q has no region or resource", arn)
	}
	return a, nil
}

// EndpointURL returns the invocation URL of the runtime identified by arn.
// The ARN is path-escaped as one segment, so ':' and '/' are encoded.
func EndpointURL(region, arn string) string {
	return fmt.Sprintf("https://%s.%s.amazonaws.com/runtimes/%s/invocations",
		ServiceName, region, url.QueryEscape(arn))
}

// ResolveRegion returns override, or the region field of arn.
func ResolveRegion(arn, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	parsed, err := ParseARN(arn)
	if err != nil {
		return "", err
	}
	return parsed.Region, nil
}
