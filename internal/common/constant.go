package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Header names handed to collaborator API clients by the authenticator.
const (
	AuthorizationHeaderName  = "Authorization"
	ClassificationHeaderName = "X-Classification"
	SessionIDHeaderName      = "X-Session-Id"
)

// DefaultAPIEndpoint is the upstream satellite API base used when a credential
// record does not carry its own endpoint.
const DefaultAPIEndpoint = "https://api.n2yo.com/rest/v1/satellite"
