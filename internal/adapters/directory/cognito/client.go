// Package cognito implements directory.Client on top of an AWS Cognito user pool
package cognito

import (
	"context"
	"strings"
	"time"

	"batchcognito/internal/core/directory"
	perr "batchcognito/internal/platform/errors"
	"batchcognito/internal/platform/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"golang.org/x/time/rate"
)

const (
	// maxPageSize is the ListUsers limit documented by Cognito
	maxPageSize    = 60
	emailAttribute = "email"
)

// API is the subset of the Cognito SDK client in use
type API interface {
	ListUsers(ctx context.Context, in *cip.ListUsersInput, optFns ...func(*cip.Options)) (*cip.ListUsersOutput, error)
	AdminAddUserToGroup(ctx context.Context, in *cip.AdminAddUserToGroupInput, optFns ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error)
	AdminRemoveUserFromGroup(ctx context.Context, in *cip.AdminRemoveUserFromGroupInput, optFns ...func(*cip.Options)) (*cip.AdminRemoveUserFromGroupOutput, error)
}

// Client talks to one user pool
type Client struct {
	api     API
	opts    Options
	limiter *rate.Limiter
	log     logger.Logger
	now     func() time.Time
}

var _ directory.Client = (*Client)(nil)

// New loads AWS configuration (env, shared profile, instance role) and
// builds a client for opts.PoolID
func New(ctx context.Context, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	loaders := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(opts.SDKMaxAttempts),
	}
	if region := opts.region(); region != "" {
		loaders = append(loaders, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnauthorized, "load aws config")
	}
	if awsCfg.Region == "" {
		return nil, perr.WithField(perr.InvalidArgf("aws region is not set (use --region, COGNITO_REGION or AWS_REGION)"), "region")
	}

	api := cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewWithAPI(api, opts), nil
}

// NewWithAPI wraps an existing API implementation
func NewWithAPI(api API, opts Options) *Client {
	opts = opts.withDefaults()
	var lim *rate.Limiter
	if opts.RatePerSec > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return &Client{
		api:     api,
		opts:    opts,
		limiter: lim,
		log:     *logger.Named("cognito"),
		now:     time.Now,
	}
}

// PoolID returns the user pool this client targets
func (c *Client) PoolID() string { return c.opts.PoolID }

// wait paces calls when a client-side rate is configured
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "rate limiter wait")
	}
	return nil
}

// ListPage returns one page of users with their email attribute
func (c *Client) ListPage(ctx context.Context, cursor string) (directory.Page, error) {
	if err := c.wait(ctx); err != nil {
		return directory.Page{}, err
	}

	in := &cip.ListUsersInput{
		UserPoolId:      aws.String(c.opts.PoolID),
		Limit:           aws.Int32(int32(c.opts.PageSize)),
		AttributesToGet: []string{emailAttribute},
	}
	if cursor != "" {
		in.PaginationToken = aws.String(cursor)
	}

	start := c.now()
	out, err := c.api.ListUsers(ctx, in)
	lat := c.now().Sub(start)
	if err != nil {
		return directory.Page{}, classify(err, "list users")
	}

	page := directory.Page{
		Records: make([]directory.Record, 0, len(out.Users)),
		Next:    aws.ToString(out.PaginationToken),
	}
	for _, u := range out.Users {
		name := aws.ToString(u.Username)
		if name == "" {
			c.log.Warn().Msg("cognito returned a user without a username; skipped")
			continue
		}
		page.Records = append(page.Records, directory.Record{UserID: name, Email: emailOf(u.Attributes)})
	}

	c.log.Debug().
		Int("users", len(page.Records)).
		Bool("more", page.Next != "").
		Dur("latency", lat).
		Msg("cognito list users")
	return page, nil
}

// MutateGroup adds or removes userID to or from group
func (c *Client) MutateGroup(ctx context.Context, userID, group string, op directory.Operation) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	start := c.now()
	var err error
	switch op {
	case directory.OpAdd:
		_, err = c.api.AdminAddUserToGroup(ctx, &cip.AdminAddUserToGroupInput{
			UserPoolId: aws.String(c.opts.PoolID),
			Username:   aws.String(userID),
			GroupName:  aws.String(group),
		})
	case directory.OpRemove:
		_, err = c.api.AdminRemoveUserFromGroup(ctx, &cip.AdminRemoveUserFromGroupInput{
			UserPoolId: aws.String(c.opts.PoolID),
			Username:   aws.String(userID),
			GroupName:  aws.String(group),
		})
	default:
		return perr.InvalidArgf("unknown operation %s", op)
	}
	lat := c.now().Sub(start)

	c.log.Debug().
		Str("op", op.String()).
		Str("user_id", userID).
		Str("group", group).
		Dur("latency", lat).
		Bool("ok", err == nil).
		Msg("cognito group mutation")

	if err != nil {
		return classify(err, op.String()+" user to group")
	}
	return nil
}

// emailOf returns the email attribute value or ""
func emailOf(attrs []types.AttributeType) string {
	for _, a := range attrs {
		if strings.EqualFold(aws.ToString(a.Name), emailAttribute) {
			return aws.ToString(a.Value)
		}
	}
	return ""
}
