package awsenv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/google/uuid"

	"github.com/lex00/stackplan-aws-go/internal/config"
	"github.com/lex00/stackplan-aws-go/internal/log"
)

// SuffixLength is the number of hex characters appended to a bucket name.
const SuffixLength = 8

// SuffixStore remembers the suffix of each uniquely named bucket so the
// bucket keeps its name across plans.
type SuffixStore struct {
	// Client is nil when offline.
	Client SSMClient
	Prefix string

	// Persist lets Save write newly generated suffixes back to the
	// parameter store.
	Persist bool

	// NewSuffix generates a suffix for a bucket seen for the first time.
	// Defaults to a random UUID fragment.
	NewSuffix func() string

	pending []generated
}

// generated is a suffix Resolve created that the store does not hold yet.
type generated struct {
	stack, bucket, suffix string
}

// ParameterName is where the suffix of bucket in stack is remembered.
func (s *SuffixStore) ParameterName(stack, bucket string) string {
	return path.Join(s.Prefix, stack, "bucket-suffix", bucket)
}

// Resolve returns the suffix of every bucket with addUniqueId set, keyed
// by bucket name. An explicit uniqueSuffix wins. Offline, a suffix is
// derived from the stack and bucket names so repeated plans agree.
//
// Resolve only reads the parameter store. Suffixes it generates are
// written by Save.
func (s *SuffixStore) Resolve(ctx context.Context, stack string, buckets []config.Bucket) (map[string]string, error) {
	suffixes := make(map[string]string)
	for _, b := range buckets {
		if !b.AddUniqueID {
			continue
		}
		switch {
		case b.UniqueSuffix != "":
			suffixes[b.Name] = b.UniqueSuffix
		case s.Client == nil:
			suffixes[b.Name] = DerivedSuffix(stack, b.Name)
		default:
			suffix, err := s.lookup(ctx, stack, b.Name)
			if err != nil {
				return nil, fmt.Errorf("bucket %q: %w", b.Name, err)
			}
			suffixes[b.Name] = suffix
		}
	}
	return suffixes, nil
}

func (s *SuffixStore) lookup(ctx context.Context, stack, bucket string) (string, error) {
	name := s.ParameterName(stack, bucket)
	out, err := s.Client.GetParameter(ctx, &ssm.GetParameterInput{Name: aws.String(name)})
	if err == nil && out.Parameter != nil && aws.ToString(out.Parameter.Value) != "" {
		return aws.ToString(out.Parameter.Value), nil
	}

	var notFound *types.ParameterNotFound
	if err != nil && !errors.As(err, &notFound) {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}

	suffix := s.generate()
	if !s.Persist {
		log.Warn("Generated bucket suffix is not persisted; the bucket name changes on the next plan",
			"bucket", bucket, "parameter", name)
		return suffix, nil
	}
	s.pending = append(s.pending, generated{stack: stack, bucket: bucket, suffix: suffix})
	return suffix, nil
}

// Save writes the suffixes generated by Resolve to the parameter store.
// Call it once the plan using them has succeeded. It does nothing unless
// Persist is set.
func (s *SuffixStore) Save(ctx context.Context) error {
	if !s.Persist || s.Client == nil {
		s.pending = nil
		return nil
	}
	for len(s.pending) > 0 {
		g := s.pending[0]
		name := s.ParameterName(g.stack, g.bucket)
		_, err := s.Client.PutParameter(ctx, &ssm.PutParameterInput{
			Name:        aws.String(name),
			Value:       aws.String(g.suffix),
			Type:        types.ParameterTypeString,
			Overwrite:   aws.Bool(false),
			Description: aws.String(fmt.Sprintf("Name suffix of bucket %s in stack %s", g.bucket, g.stack)),
		})
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Info("Stored bucket suffix", "bucket", g.bucket, "parameter", name)
		s.pending = s.pending[1:]
	}
	return nil
}

func (s *SuffixStore) generate() string {
	if s.NewSuffix != nil {
		return s.NewSuffix()
	}
	return fragment(uuid.New())
}

// DerivedSuffix is the suffix used offline: a name-based UUID fragment.
func DerivedSuffix(stack, bucket string) string {
	return fragment(uuid.NewSHA1(uuid.NameSpaceURL, []byte(stack+"/"+bucket)))
}

func fragment(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")[:SuffixLength]
}
