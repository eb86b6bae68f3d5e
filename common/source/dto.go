package source

import (
	"fmt"
	"strconv"
	"time"

	"github.com/longkeyy/go-dsloader/common/plugin"
)

// Source 数据源描述，只携带连接所需的参数，不持有连接
type Source interface {
	SourceType() Type
}

// As 将描述断言为插件期望的具体类型
func As[T Source](src Source) (T, error) {
	var zero T
	if src == nil {
		return zero, fmt.Errorf("%w: nil source", plugin.ErrInvalidSource)
	}
	s, ok := src.(T)
	if !ok {
		return zero, fmt.Errorf("%w: expected %T, got %T", plugin.ErrInvalidSource, zero, src)
	}
	return s, nil
}

// RdbmsSource 关系型数据库，URL 可以是 JDBC 形式或驱动原生 DSN
type RdbmsSource struct {
	Type       Type
	URL        string
	Username   string
	Password   string
	Schema     string
	Properties map[string]string
}

func (s *RdbmsSource) SourceType() Type { return s.Type }

// KerberosConfig 开启 Kerberos 认证时的三件套
type KerberosConfig struct {
	Krb5Conf  string
	Keytab    string
	Principal string
}

// Enabled 是否配置了 Kerberos
func (k *KerberosConfig) Enabled() bool {
	return k != nil && k.Keytab != "" && k.Principal != ""
}

// KerberosSource 仅用于认证的数据源
type KerberosSource struct {
	KerberosConfig
}

func (s *KerberosSource) SourceType() Type { return Kerberos }

type HdfsSource struct {
	DefaultFS string
	User      string
	Config    map[string]string
	Kerberos  *KerberosConfig
}

func (s *HdfsSource) SourceType() Type { return HDFS }

const (
	ProtocolFTP  = "ftp"
	ProtocolSFTP = "sftp"

	ConnectModePASV = "PASV"
	ConnectModePORT = "PORT"
)

type FtpSource struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Protocol    string
	ConnectMode string
	Timeout     time.Duration
}

func (s *FtpSource) SourceType() Type { return FTP }

// Address host:port，端口缺省时按协议取 21 或 22
func (s *FtpSource) Address() string {
	port := s.Port
	if port == 0 {
		port = 21
		if s.Protocol == ProtocolSFTP {
			port = 22
		}
	}
	return s.Host + ":" + strconv.Itoa(port)
}

// ObjectStoreSource OSS 与 S3 共用
type ObjectStoreSource struct {
	Type      Type
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseCName  bool
	PathStyle bool
}

func (s *ObjectStoreSource) SourceType() Type { return s.Type }

type KafkaSource struct {
	Brokers  []string
	ClientID string
}

func (s *KafkaSource) SourceType() Type { return Kafka }

type RabbitMQSource struct {
	URL string
}

func (s *RabbitMQSource) SourceType() Type { return RabbitMQ }

type CassandraSource struct {
	Hosts       []string
	Port        int
	Keyspace    string
	Username    string
	Password    string
	Consistency string
}

func (s *CassandraSource) SourceType() Type { return Cassandra }

// TsdbSource TDengine REST 连接
type TsdbSource struct {
	URL      string
	Username string
	Password string
	Database string
}

func (s *TsdbSource) SourceType() Type { return TDengine }

type RestfulSource struct {
	URL      string
	Headers  map[string]string
	Timeout  time.Duration
	RetryMax int
}

func (s *RestfulSource) SourceType() Type { return Restful }

type RedisSource struct {
	Addr     string
	Password string
	DB       int
}

func (s *RedisSource) SourceType() Type { return Redis }

// Neo4jSource Type 为 Neo4j 或 Neo4j40
type Neo4jSource struct {
	Type     Type
	URI      string
	Username string
	Password string
	Database string
}

func (s *Neo4jSource) SourceType() Type { return s.Type }

type MongoSource struct {
	URI      string
	Database string
}

func (s *MongoSource) SourceType() Type { return MongoDB }

type ElasticsearchSource struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
}

func (s *ElasticsearchSource) SourceType() Type { return ES7 }
