package couchbase

import (
	"context"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

// Config holds what is needed to reach the cluster.
type Config struct {
	URL      string
	Username string
	Password string
	Bucket   string
	Scope    string
}

// ConnectionManager handles Couchbase cluster and bucket connections
type ConnectionManager struct {
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	bucketName string
	scopeName  string
}

// NewConnectionManager connects to the cluster and waits for the bucket
func NewConnectionManager(cfg Config) (*ConnectionManager, error) {
	if cfg.Scope == "" {
		cfg.Scope = "_default"
	}

	log.Info().
		Str("url", cfg.URL).
		Str("bucket", cfg.Bucket).
		Str("scope", cfg.Scope).
		Msg("Creating Couchbase connection")

	cluster, err := gocb.Connect(cfg.URL, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect cluster: %w", err)
	}

	bucket := cluster.Bucket(cfg.Bucket)
	err = bucket.WaitUntilReady(30*time.Second, &gocb.WaitUntilReadyOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue, gocb.ServiceTypeQuery},
	})
	if err != nil {
		_ = cluster.Close(nil)
		return nil, fmt.Errorf("bucket %s not ready: %w", cfg.Bucket, err)
	}

	log.Info().Msg("Couchbase connection created successfully")
	return &ConnectionManager{
		cluster:    cluster,
		bucket:     bucket,
		bucketName: cfg.Bucket,
		scopeName:  cfg.Scope,
	}, nil
}

// Close closes the Couchbase connection
func (cm *ConnectionManager) Close() error {
	return cm.cluster.Close(nil)
}

// Ping checks the key-value service.
func (cm *ConnectionManager) Ping(ctx context.Context) error {
	report, err := cm.bucket.Ping(&gocb.PingOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue},
		Context:      ctx,
	})
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	for _, results := range report.Services {
		for _, res := range results {
			if res.State != gocb.PingStateOk {
				return fmt.Errorf("ping %s: %s", res.Remote, res.Error)
			}
		}
	}
	return nil
}

// Scope returns the scope documents are stored in.
func (cm *ConnectionManager) Scope() *gocb.Scope {
	return cm.bucket.Scope(cm.scopeName)
}

// Collection returns the Couchbase collection backing name.
func (cm *ConnectionManager) Collection(name string) *gocb.Collection {
	return cm.Scope().Collection(name)
}

// Keyspace returns the fully qualified `bucket`.`scope`.`collection` path.
func (cm *ConnectionManager) Keyspace(collection string) string {
	return fmt.Sprintf("`%s`.`%s`.`%s`", cm.bucketName, cm.scopeName, collection)
}

// GetCluster returns the cluster instance
func (cm *ConnectionManager) GetCluster() *gocb.Cluster {
	return cm.cluster
}
