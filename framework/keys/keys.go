// Package keys lists the well-known binding keys shared by the framework
// packages. Application code may bind any other key.
package keys

// Application level.
const (
	ApplicationName = "application.name"
	Config          = "config"
	Logger          = "logger"
	Metrics         = "metrics.collector"
	Router          = "router"
)

// Bound per request by the rest sequence.
const (
	Request   = "rest.request"
	Response  = "rest.response"
	RequestID = "rest.request.id"
	Route     = "rest.route"
	FindRoute = "rest.findRoute"
)

// Authentication.
const (
	AuthMetadata   = "authentication.metadata"
	AuthStrategy   = "authentication.strategy"
	AuthStrategies = "authentication.strategies"
	AuthProvider   = "authentication.provider"
	CurrentUser    = "authentication.user"
)

// Repositories are bound under RepositoryPrefix + name.
const RepositoryPrefix = "repositories."
