package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopic           = errors.New("pubsub orders topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client owns the Pub/Sub connection and the resolved orders topic.
type Client struct {
	client      *pubsub.Client
	projectID   string
	ordersTopic string
}

// NewClient creates a Pub/Sub v2 client and makes sure the orders topic exists,
// creating it when cfg.CreateTopic is set.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	ordersTopic := topicResourceName(projectID, cfg.OrdersTopic)
	if ordersTopic == "" {
		return nil, errNoTopic
	}

	psClient, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{client: psClient, projectID: projectID, ordersTopic: ordersTopic}

	if err := c.ensureTopic(ctx, ordersTopic, cfg.CreateTopic); err != nil {
		_ = psClient.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", ordersTopic), "pubsub client initialized")
	}
	return c, nil
}

// clientOptions prefers inline JSON credentials over a credentials file. With
// neither set the SDK falls back to application default credentials.
func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

func (c *Client) ensureTopic(ctx context.Context, topic string, create bool) error {
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
	switch {
	case err == nil:
		return nil
	case status.Code(err) != codes.NotFound:
		return fmt.Errorf("checking topic %q: %w", topic, err)
	case !create:
		return fmt.Errorf("topic %q does not exist", topic)
	}

	_, err = c.client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topic})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("creating topic %q: %w", topic, err)
	}
	return nil
}

// Publisher returns a publisher handle for a topic ID or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	topic := topicResourceName(c.projectID, name)
	if topic == "" {
		return nil
	}
	return c.client.Publisher(topic)
}

func (c *Client) OrdersPublisher() *pubsub.Publisher {
	if c == nil {
		return nil
	}
	return c.Publisher(c.ordersTopic)
}

// Ping re-checks the orders topic.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	return c.ensureTopic(ctx, c.ordersTopic, false)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// topicResourceName expands a bare topic id to projects/<p>/topics/<id>.
func topicResourceName(projectID, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/") {
		return name
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/topics/" + name
}
