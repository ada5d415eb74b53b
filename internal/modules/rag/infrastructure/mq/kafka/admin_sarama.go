package kafka

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

const defaultEventRetention = 7 * 24 * time.Hour

// EventTopic 文档事件主题的创建参数，零值字段在建主题时取默认
type EventTopic struct {
	Name        string
	Partitions  int32
	Replication int16
	Retention   time.Duration
}

func (t EventTopic) detail() *sarama.TopicDetail {
	partitions, replication, retention := t.Partitions, t.Replication, t.Retention
	if partitions <= 0 {
		partitions = 1
	}
	if replication <= 0 {
		replication = 1
	}
	if retention <= 0 {
		retention = defaultEventRetention
	}
	retentionMs := strconv.FormatInt(retention.Milliseconds(), 10)
	cleanup := "delete"
	return &sarama.TopicDetail{
		NumPartitions:     partitions,
		ReplicationFactor: replication,
		ConfigEntries: map[string]*string{
			"retention.ms":   &retentionMs,
			"cleanup.policy": &cleanup,
		},
	}
}

// EnsureEventTopic 启动时确认事件主题存在，复用发布端的 broker 与 clientID
func EnsureEventTopic(cfg PublisherConfig, topic EventTopic) error {
	if len(cfg.Brokers) == 0 {
		return errors.New("kafka brokers is empty")
	}
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_8_0_0
	sc.ClientID = strings.TrimSpace(cfg.ClientID)
	sc.Admin.Timeout = 10 * time.Second

	admin, err := sarama.NewClusterAdmin(cfg.Brokers, sc)
	if err != nil {
		return err
	}
	defer admin.Close()
	return ensureTopic(admin, topic)
}

func ensureTopic(admin sarama.ClusterAdmin, topic EventTopic) error {
	name := strings.TrimSpace(topic.Name)
	if name == "" {
		return errors.New("kafka topic is empty")
	}
	metas, err := admin.DescribeTopics([]string{name})
	if err != nil {
		return fmt.Errorf("describe topic %s: %w", name, err)
	}
	for _, m := range metas {
		if m != nil && m.Name == name && m.Err == sarama.ErrNoError {
			return nil
		}
	}
	// 多实例并发启动时可能已被其他实例创建
	if err := admin.CreateTopic(name, topic.detail(), false); err != nil && !alreadyExists(err) {
		return fmt.Errorf("create topic %s: %w", name, err)
	}
	return nil
}

func alreadyExists(err error) bool {
	var te *sarama.TopicError
	if errors.As(err, &te) {
		return te.Err == sarama.ErrTopicAlreadyExists
	}
	return errors.Is(err, sarama.ErrTopicAlreadyExists)
}
