package clickhouse

import "time"

// ClientConfig holds ClickHouse client configuration.
type ClientConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	UseHTTP         bool
	AsyncInsert     bool
	WaitForAsync    bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxExecTime     time.Duration
}

// ClientOption configures the client.
type ClientOption func(*ClientConfig)

// WithHost sets the server host.
func WithHost(host string) ClientOption {
	return func(c *ClientConfig) {
		c.Host = host
	}
}

// WithPort sets the server port.
func WithPort(port int) ClientOption {
	return func(c *ClientConfig) {
		if port > 0 {
			c.Port = port
		}
	}
}

// WithDatabase sets the database name.
func WithDatabase(db string) ClientOption {
	return func(c *ClientConfig) {
		c.Database = db
	}
}

// WithCredentials sets user and password.
func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		c.User = user
		c.Password = password
	}
}

// WithMaxConnections sets pool sizes.
func WithMaxConnections(open, idle int) ClientOption {
	return func(c *ClientConfig) {
		if open > 0 {
			c.MaxOpenConns = open
		}
		if idle > 0 {
			c.MaxIdleConns = idle
		}
	}
}

// WithHTTP toggles the HTTP transport.
func WithHTTP(useHTTP bool) ClientOption {
	return func(c *ClientConfig) {
		c.UseHTTP = useHTTP
	}
}

// WithAsyncInsert toggles async inserts.
func WithAsyncInsert(async, wait bool) ClientOption {
	return func(c *ClientConfig) {
		c.AsyncInsert = async
		c.WaitForAsync = wait
	}
}

// WithTimeouts sets dial/read/write timeouts.
func WithTimeouts(dial, read, write time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
	}
}

// WithMaxExecutionTime sets the server-side query execution cap.
func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if d > 0 {
			c.MaxExecTime = d
		}
	}
}
