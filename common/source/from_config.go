package source

import (
	"fmt"
	"time"

	"github.com/longkeyy/go-dsloader/common/config"
	"github.com/longkeyy/go-dsloader/common/plugin"
)

const (
	KeySourceType = "sourceType"
	KeyParameter  = "parameter"
)

// FromConfiguration 从 {"sourceType": n, "parameter": {...}} 形式的配置构建数据源描述
func FromConfiguration(conf config.Configuration) (Source, error) {
	if conf == nil || !conf.IsExists(KeySourceType) {
		return nil, fmt.Errorf("%w: missing %s", plugin.ErrInvalidSource, KeySourceType)
	}

	typ := Type(conf.GetIntWithDefault(KeySourceType, int(Unknown)))
	if _, err := Resolve(typ); err != nil {
		return nil, err
	}

	p := conf.GetConfiguration(KeyParameter)
	src := build(typ, p)
	if src == nil {
		return nil, fmt.Errorf("%w: no descriptor for source type %s", plugin.ErrInvalidSource, typ)
	}
	if err := Validate(src); err != nil {
		return nil, err
	}
	return src, nil
}

func build(typ Type, p config.Configuration) Source {
	switch typ {
	case MySQL, MySQL8, Oracle, SQLServer, PostgreSQL, Clickhouse, OceanBase, Doris, SQLite, Databend, StarRocks:
		return &RdbmsSource{
			Type:       typ,
			URL:        p.GetStringWithDefault("url", p.GetString("jdbcUrl")),
			Username:   p.GetString("username"),
			Password:   p.GetString("password"),
			Schema:     p.GetString("schema"),
			Properties: p.GetStringMap("properties"),
		}
	case HDFS:
		s := &HdfsSource{
			DefaultFS: p.GetString("defaultFS"),
			User:      p.GetString("user"),
			Config:    p.GetStringMap("config"),
		}
		if p.IsExists("kerberos") {
			k := kerberosConfig(p.GetConfiguration("kerberos"))
			s.Kerberos = &k
		}
		return s
	case FTP:
		return &FtpSource{
			Host:        p.GetString("host"),
			Port:        p.GetInt("port"),
			Username:    p.GetString("username"),
			Password:    p.GetString("password"),
			Protocol:    p.GetStringWithDefault("protocol", ProtocolFTP),
			ConnectMode: p.GetStringWithDefault("connectMode", ConnectModePASV),
			Timeout:     p.GetDuration("timeout", 60*time.Second),
		}
	case S3, OSS:
		return &ObjectStoreSource{
			Type:      typ,
			Endpoint:  p.GetString("endpoint"),
			Region:    p.GetString("region"),
			AccessKey: p.GetString("accessKey"),
			SecretKey: p.GetString("secretKey"),
			Bucket:    p.GetString("bucket"),
			UseCName:  p.GetBool("useCname"),
			PathStyle: p.GetBool("pathStyle"),
		}
	case Kafka:
		return &KafkaSource{
			Brokers:  p.GetStringList("brokers"),
			ClientID: p.GetString("clientId"),
		}
	case RabbitMQ:
		return &RabbitMQSource{URL: p.GetString("url")}
	case Kerberos:
		return &KerberosSource{KerberosConfig: kerberosConfig(p)}
	case Cassandra:
		return &CassandraSource{
			Hosts:       p.GetStringList("hosts"),
			Port:        p.GetIntWithDefault("port", 9042),
			Keyspace:    p.GetString("keyspace"),
			Username:    p.GetString("username"),
			Password:    p.GetString("password"),
			Consistency: p.GetStringWithDefault("consistency", "QUORUM"),
		}
	case TDengine:
		return &TsdbSource{
			URL:      p.GetString("url"),
			Username: p.GetStringWithDefault("username", "root"),
			Password: p.GetString("password"),
			Database: p.GetString("database"),
		}
	case Restful:
		return &RestfulSource{
			URL:      p.GetString("url"),
			Headers:  p.GetStringMap("headers"),
			Timeout:  p.GetDuration("timeout", 30*time.Second),
			RetryMax: p.GetIntWithDefault("retryMax", 3),
		}
	case Redis:
		return &RedisSource{
			Addr:     p.GetString("addr"),
			Password: p.GetString("password"),
			DB:       p.GetInt("db"),
		}
	case Neo4j, Neo4j40:
		return &Neo4jSource{
			Type:     typ,
			URI:      p.GetString("uri"),
			Username: p.GetString("username"),
			Password: p.GetString("password"),
			Database: p.GetString("database"),
		}
	case MongoDB:
		return &MongoSource{
			URI:      p.GetString("uri"),
			Database: p.GetString("database"),
		}
	case ES7:
		return &ElasticsearchSource{
			Addresses: p.GetStringList("addresses"),
			Username:  p.GetString("username"),
			Password:  p.GetString("password"),
			APIKey:    p.GetString("apiKey"),
		}
	}
	return nil
}

func kerberosConfig(p config.Configuration) KerberosConfig {
	return KerberosConfig{
		Krb5Conf:  p.GetString("krb5Conf"),
		Keytab:    p.GetString("keytab"),
		Principal: p.GetString("principal"),
	}
}

// Validate 检查描述中连接所必需的字段
func Validate(src Source) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s requires %s", plugin.ErrInvalidSource, src.SourceType(), field)
	}

	switch s := src.(type) {
	case *RdbmsSource:
		if s.URL == "" {
			return missing("url")
		}
	case *HdfsSource:
		if s.DefaultFS == "" {
			return missing("defaultFS")
		}
	case *FtpSource:
		if s.Host == "" {
			return missing("host")
		}
		if s.Protocol != ProtocolFTP && s.Protocol != ProtocolSFTP {
			return fmt.Errorf("%w: unsupported ftp protocol %q", plugin.ErrInvalidSource, s.Protocol)
		}
	case *ObjectStoreSource:
		if s.Bucket == "" {
			return missing("bucket")
		}
	case *KafkaSource:
		if len(s.Brokers) == 0 {
			return missing("brokers")
		}
	case *RabbitMQSource:
		if s.URL == "" {
			return missing("url")
		}
	case *KerberosSource:
		if !s.Enabled() {
			return missing("keytab and principal")
		}
	case *CassandraSource:
		if len(s.Hosts) == 0 {
			return missing("hosts")
		}
	case *TsdbSource:
		if s.URL == "" {
			return missing("url")
		}
	case *RestfulSource:
		if s.URL == "" {
			return missing("url")
		}
	case *RedisSource:
		if s.Addr == "" {
			return missing("addr")
		}
	case *Neo4jSource:
		if s.URI == "" {
			return missing("uri")
		}
	case *MongoSource:
		if s.URI == "" {
			return missing("uri")
		}
	case *ElasticsearchSource:
		if len(s.Addresses) == 0 {
			return missing("addresses")
		}
	}
	return nil
}
