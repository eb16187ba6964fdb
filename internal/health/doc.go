// Package health runs the optional HTTP health-check and Prometheus metrics
// endpoint, grounded on the teacher's app.startHealthcheckServer/
// closeHealthCheckServer, extended with a /metrics route serving whatever
// registry internal/metrics was constructed against.
package health
