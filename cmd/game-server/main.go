package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pinochle-platform/internal/analytics"
	"pinochle-platform/internal/game"
	"pinochle-platform/pkg/rng"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// connSeq disambiguates connections that reuse a remote address.
var connSeq uint64

// wsTransport adapts a gorilla WebSocket connection to the room transport
// contract: a reader goroutine feeds the inbound channel in arrival order
// and Send serialises writes.
type wsTransport struct {
	conn *websocket.Conn
	in   chan []byte
	mu   sync.Mutex
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	t := &wsTransport{conn: conn, in: make(chan []byte)}
	go t.readLoop()
	return t
}

func (t *wsTransport) readLoop() {
	defer close(t.in)
	for {
		kind, payload, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		t.in <- payload
	}
}

func (t *wsTransport) Inbound() <-chan []byte {
	return t.in
}

func (t *wsTransport) Send(msg []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, msg)
}

// GameServer holds the shared server state.
type GameServer struct {
	registry  *game.Registry
	analytics *analytics.Service
}

func NewGameServer() (*GameServer, error) {
	rngSystem, err := rng.NewSystem()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RNG: %w", err)
	}

	service, err := buildAnalytics()
	if err != nil {
		return nil, err
	}

	var recorder analytics.Recorder
	if service != nil {
		service.Start()
		recorder = service
	}

	return &GameServer{
		registry:  game.NewRegistry(rngSystem, recorder),
		analytics: service,
	}, nil
}

// buildAnalytics constructs the optional event pipeline from environment
// configuration. Every backend is independent; none configured means no
// pipeline at all.
func buildAnalytics() (*analytics.Service, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var sinks []analytics.EventSink

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := envOr("KAFKA_TOPIC", "game-events")
		producer, err := analytics.NewKafkaEventProducer(
			analytics.DefaultKafkaConfig(strings.Split(brokers, ","), topic))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Kafka: %w", err)
		}
		sinks = append(sinks, producer)
	}

	if addr := os.Getenv("CLICKHOUSE_ADDR"); addr != "" {
		store, err := analytics.NewClickHouseEvents(ctx, analytics.ClickHouseConfig{
			Addr:     addr,
			Database: envOr("CLICKHOUSE_DATABASE", "default"),
			Username: envOr("CLICKHOUSE_USER", "default"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		if err := store.CreateTables(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, store)
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		sessions, err := analytics.NewPostgresSessions(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := sessions.CreateTables(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, analytics.NewSessionSink(sessions))
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	return analytics.NewService(analytics.DefaultServiceConfig(), sinks...), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *GameServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id := game.ConnID(fmt.Sprintf("%s#%d", conn.RemoteAddr(), atomic.AddUint64(&connSeq, 1)))
	game.ServeConn(s.registry, id, newWSTransport(conn))
}

func main() {
	router := gin.Default()

	server, err := NewGameServer()
	if err != nil {
		log.Fatalf("Failed to create game server: %v", err)
	}

	// WebSocket endpoint; clients pick a table with join_table frames
	router.GET("/ws", server.handleWebSocket)

	// REST API for table inspection
	router.GET("/api/tables", func(c *gin.Context) {
		c.JSON(200, server.registry.Infos())
	})

	router.GET("/api/tables/:name", func(c *gin.Context) {
		table := server.registry.Get(c.Param("name"))
		if table == nil {
			c.JSON(404, gin.H{"error": "Table not found"})
			return
		}
		c.JSON(200, table.Info())
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		if server.analytics != nil {
			server.analytics.Stop()
		}
		os.Exit(0)
	}()

	port := os.Getenv("GAME_SERVER_PORT")
	if port == "" {
		port = "3002"
	}

	log.Printf("Game server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
