package cognito

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"batchcognito/internal/core/directory"
	perr "batchcognito/internal/platform/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type fakeAPI struct {
	mu      sync.Mutex
	pages   map[string]*cip.ListUsersOutput
	listIn  []*cip.ListUsersInput
	added   []string
	removed []string
	err     error
}

func (f *fakeAPI) ListUsers(_ context.Context, in *cip.ListUsersInput, _ ...func(*cip.Options)) (*cip.ListUsersOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listIn = append(f.listIn, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[aws.ToString(in.PaginationToken)], nil
}

func (f *fakeAPI) AdminAddUserToGroup(_ context.Context, in *cip.AdminAddUserToGroupInput, _ ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, aws.ToString(in.Username)+"@"+aws.ToString(in.GroupName))
	return &cip.AdminAddUserToGroupOutput{}, nil
}

func (f *fakeAPI) AdminRemoveUserFromGroup(_ context.Context, in *cip.AdminRemoveUserFromGroupInput, _ ...func(*cip.Options)) (*cip.AdminRemoveUserFromGroupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.removed = append(f.removed, aws.ToString(in.Username)+"@"+aws.ToString(in.GroupName))
	return &cip.AdminRemoveUserFromGroupOutput{}, nil
}

func user(name, email string) types.UserType {
	u := types.UserType{Username: aws.String(name)}
	if email != "" {
		u.Attributes = []types.AttributeType{
			{Name: aws.String("sub"), Value: aws.String("ignored")},
			{Name: aws.String("email"), Value: aws.String(email)},
		}
	}
	return u
}

func TestListPage_MapsUsersAndCursor(t *testing.T) {
	api := &fakeAPI{pages: map[string]*cip.ListUsersOutput{
		"": {
			Users:           []types.UserType{user("u-alice", "alice@example.com"), user("u-noemail", "")},
			PaginationToken: aws.String("t1"),
		},
		"t1": {
			Users: []types.UserType{user("u-bob", "Bob@Example.com"), {Username: nil}},
		},
	}}
	c := NewWithAPI(api, Options{PoolID: "eu-west-1_abc", PageSize: 25})

	p1, err := c.ListPage(context.Background(), "")
	if err != nil {
		t.Fatalf("ListPage first: %v", err)
	}
	if p1.Next != "t1" || len(p1.Records) != 2 {
		t.Fatalf("first page = %+v", p1)
	}
	if p1.Records[0] != (directory.Record{UserID: "u-alice", Email: "alice@example.com"}) {
		t.Fatalf("record 0 = %+v", p1.Records[0])
	}
	if p1.Records[1].Email != "" {
		t.Fatalf("user without email should map to empty email, got %q", p1.Records[1].Email)
	}

	p2, err := c.ListPage(context.Background(), "t1")
	if err != nil {
		t.Fatalf("ListPage second: %v", err)
	}
	if p2.Next != "" || len(p2.Records) != 1 || p2.Records[0].Email != "Bob@Example.com" {
		t.Fatalf("second page = %+v", p2)
	}

	first := api.listIn[0]
	if aws.ToString(first.UserPoolId) != "eu-west-1_abc" || aws.ToInt32(first.Limit) != 25 {
		t.Fatalf("list input = pool %q limit %d", aws.ToString(first.UserPoolId), aws.ToInt32(first.Limit))
	}
	if first.PaginationToken != nil {
		t.Fatalf("first call should not send a token")
	}
	if len(first.AttributesToGet) != 1 || first.AttributesToGet[0] != "email" {
		t.Fatalf("attributes = %v", first.AttributesToGet)
	}
	if aws.ToString(api.listIn[1].PaginationToken) != "t1" {
		t.Fatalf("second call token = %q", aws.ToString(api.listIn[1].PaginationToken))
	}
}

func TestMutateGroup_AddRemove(t *testing.T) {
	api := &fakeAPI{}
	c := NewWithAPI(api, Options{PoolID: "p"})
	ctx := context.Background()

	if err := c.MutateGroup(ctx, "u1", "admins", directory.OpAdd); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.MutateGroup(ctx, "u2", "admins", directory.OpRemove); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(api.added) != 1 || api.added[0] != "u1@admins" {
		t.Fatalf("added = %v", api.added)
	}
	if len(api.removed) != 1 || api.removed[0] != "u2@admins" {
		t.Fatalf("removed = %v", api.removed)
	}

	err := c.MutateGroup(ctx, "u1", "admins", directory.Operation(9))
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unknown op err = %v", err)
	}
}

func TestMutateGroup_ClassifiesErrors(t *testing.T) {
	api := &fakeAPI{err: &smithy.GenericAPIError{Code: "TooManyRequestsException", Message: "slow down"}}
	c := NewWithAPI(api, Options{PoolID: "p"})

	err := c.MutateGroup(context.Background(), "u1", "g", directory.OpAdd)
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) || !perr.Retryable(err) {
		t.Fatalf("throttle err = %v (code %s)", err, perr.CodeOf(err))
	}

	api.err = &smithy.GenericAPIError{Code: "UserNotFoundException"}
	err = c.MutateGroup(context.Background(), "u1", "g", directory.OpRemove)
	if !perr.IsCode(err, perr.ErrorCodeNotFound) || perr.Retryable(err) {
		t.Fatalf("not found err = %v (code %s)", err, perr.CodeOf(err))
	}
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	c := NewWithAPI(&fakeAPI{}, Options{PoolID: "p", RatePerSec: 0.001, Burst: 1})
	ctx := context.Background()
	if err := c.MutateGroup(ctx, "u", "g", directory.OpAdd); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err := c.MutateGroup(cctx, "u", "g", directory.OpAdd)
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("limited call with canceled ctx err = %v", err)
	}
}

func TestClassify(t *testing.T) {
	respErr := func(status int) error {
		return &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
			Err:      errors.New("boom"),
		}
	}
	cases := []struct {
		name string
		err  error
		want perr.ErrorCode
	}{
		{"throttled", &smithy.GenericAPIError{Code: "TooManyRequestsException"}, perr.ErrorCodeTooManyRequests},
		{"limit", &smithy.GenericAPIError{Code: "LimitExceededException"}, perr.ErrorCodeTooManyRequests},
		{"internal", &smithy.GenericAPIError{Code: "InternalErrorException"}, perr.ErrorCodeUnavailable},
		{"server fault", &smithy.GenericAPIError{Code: "Whatever", Fault: smithy.FaultServer}, perr.ErrorCodeUnavailable},
		{"user missing", &smithy.GenericAPIError{Code: "UserNotFoundException"}, perr.ErrorCodeNotFound},
		{"group missing", &smithy.GenericAPIError{Code: "ResourceNotFoundException"}, perr.ErrorCodeNotFound},
		{"not authorized", &smithy.GenericAPIError{Code: "NotAuthorizedException"}, perr.ErrorCodeUnauthorized},
		{"bad param", &smithy.GenericAPIError{Code: "InvalidParameterException"}, perr.ErrorCodeInvalidArgument},
		{"unknown api code", &smithy.GenericAPIError{Code: "Mystery", Fault: smithy.FaultClient}, perr.ErrorCodeUnknown},
		{"http 503", respErr(503), perr.ErrorCodeUnavailable},
		{"http 429", respErr(429), perr.ErrorCodeTooManyRequests},
		{"http 400", respErr(400), perr.ErrorCodeUnknown},
		{"deadline", context.DeadlineExceeded, perr.ErrorCodeUnavailable},
		{"transport", errors.New("connection reset by peer"), perr.ErrorCodeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err, "op")
			if perr.CodeOf(got) != tc.want {
				t.Fatalf("classify(%v) code = %s, want %s", tc.err, perr.CodeOf(got), tc.want)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("classified error should wrap the original")
			}
		})
	}
	if classify(nil, "op") != nil {
		t.Fatalf("classify(nil) should be nil")
	}
}
