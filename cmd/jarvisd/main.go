// jarvisd is the thin ambient HTTP wrapper over the Controller's `run`
// contract: HTTP transport is a thin wrapper over run(input, task_id?) ->
// result, nothing more. Grounded on cmd/tarsy/main.go's startup sequence
// (flag-or-env config dir, godotenv load, gin router, /health endpoint),
// generalized from a Postgres-backed multi-service startup to this
// module's single-process, embedded-storage wiring.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bentman/JARVISv5/pkg/ann"
	"github.com/bentman/JARVISv5/pkg/archive"
	"github.com/bentman/JARVISv5/pkg/cache"
	"github.com/bentman/JARVISv5/pkg/config"
	"github.com/bentman/JARVISv5/pkg/controller"
	"github.com/bentman/JARVISv5/pkg/embedding"
	"github.com/bentman/JARVISv5/pkg/episodic"
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/llm"
	"github.com/bentman/JARVISv5/pkg/memory"
	"github.com/bentman/JARVISv5/pkg/pii"
	"github.com/bentman/JARVISv5/pkg/retriever"
	"github.com/bentman/JARVISv5/pkg/sandbox"
	"github.com/bentman/JARVISv5/pkg/semantic"
	"github.com/bentman/JARVISv5/pkg/tools"
	"github.com/bentman/JARVISv5/pkg/workingstate"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "directory containing a .env override file")
	httpPort := flag.String("http-port", getEnv("HTTP_PORT", "8080"), "HTTP listen port")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	if cfg.Debug == config.DebugDev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	mem, closers, err := openMemory(ctx, cfg)
	if err != nil {
		log.Fatalf("opening memory stores: %v", err)
	}
	defer func() {
		for _, closer := range closers {
			if err := closer(); err != nil {
				log.Printf("closing memory store: %v", err)
			}
		}
	}()

	archiver, err := archive.New(filepath.Join(cfg.DataDir, "archives"))
	if err != nil {
		log.Fatalf("opening archive store: %v", err)
	}

	var c *cache.Cache
	if cfg.Cache.Enabled {
		c = cache.New(cfg.Cache.RedisAddr, cfg.Cache.RedisDB, cfg.Cache.OperationTimeout)
	}

	redactor, err := newRedactor(cfg)
	if err != nil {
		log.Fatalf("opening PII audit log: %v", err)
	}

	box, err := sandbox.New(cfg.Sandbox.AllowedRoots, cfg.Sandbox.ReadEnabled, cfg.Sandbox.WriteEnabled,
		cfg.Sandbox.DeleteEnabled, cfg.Sandbox.MaxReadBytes, cfg.Sandbox.MaxWriteBytes,
		cfg.Sandbox.MaxListEntries, cfg.Sandbox.MaxVisited)
	if err != nil {
		log.Fatalf("constructing sandbox: %v", err)
	}

	registry := tools.NewRegistry()
	for _, t := range []tools.Tool{
		tools.ReadFileTool{Box: box},
		tools.WriteFileTool{Box: box},
		tools.ListDirTool{Box: box},
	} {
		if err := registry.Register(t); err != nil {
			log.Fatalf("registering tool %s: %v", t.Name(), err)
		}
	}
	toolExecutor := tools.NewExecutor(registry, c, redactor, cfg.Cache.ToolTTL, cfg.Cache.KeyVersion, cfg.Cache.MaxKeyLength)

	retr := retriever.New(mem, cfg.Retrieval)

	// The model runtime itself is an injected capability out of this
	// module's scope; jarvisd wires the deterministic stub so the server is
	// runnable standalone. A real deployment replaces this with an
	// llm.Generator backed by an actual model.
	generator := llm.StubGenerator{}

	// WRITE_SAFE tools are allowed exactly when the sandbox itself allows
	// writes; no external tool is registered here, so allow_external stays
	// false until a real external integration is wired in.
	ctrl := controller.New(cfg, mem, archiver, generator, retr, c, toolExecutor, cfg.Sandbox.WriteEnabled, false)

	router := gin.Default()
	router.GET("/health", healthHandler(c))
	router.POST("/run", runHandler(ctrl))

	log.Printf("jarvisd listening on :%s (data dir %s)", *httpPort, cfg.DataDir)
	if err := router.Run(":" + *httpPort); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func openMemory(ctx context.Context, cfg config.Config) (*memory.Manager, []func() error, error) {
	ep, err := episodic.Open(ctx, filepath.Join(cfg.DataDir, "episodic", "trace.db"))
	if err != nil {
		return nil, nil, err
	}

	ws, err := workingstate.New(filepath.Join(cfg.DataDir, "working_state"), cfg.Transcript.MaxMessages)
	if err != nil {
		return nil, nil, err
	}

	sem, err := semantic.Open(ctx, filepath.Join(cfg.DataDir, "semantic", "metadata.db"), ann.NewFlatIndex(), embedding.NewHashEmbedder(64))
	if err != nil {
		return nil, nil, err
	}

	return memory.New(ep, ws, sem), []func() error{ep.Close, sem.Close}, nil
}

func newRedactor(cfg config.Config) (*pii.Redactor, error) {
	if !cfg.PII.AuditEnabled {
		return pii.NewRedactor(cfg.PII.DetectionEnabled, cfg.PII.RedactionEnabled, cfg.PII.AuditEnabled, nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.PII.AuditLogPath), 0o755); err != nil {
		return nil, err
	}
	audit, err := pii.OpenAuditLog(cfg.PII.AuditLogPath)
	if err != nil {
		return nil, err
	}
	return pii.NewRedactor(cfg.PII.DetectionEnabled, cfg.PII.RedactionEnabled, cfg.PII.AuditEnabled, audit), nil
}

// runRequest is the `{user_input, task_id?}` submission shape.
type runRequest struct {
	UserInput string `json:"user_input" binding:"required"`
	TaskID    string `json:"task_id"`
}

// runResponse is the `{task_id, final_state, llm_output}` return shape.
type runResponse struct {
	TaskID     string `json:"task_id"`
	FinalState string `json:"final_state"`
	LLMOutput  string `json:"llm_output"`
}

func runHandler(ctrl *controller.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := ctrl.Run(c.Request.Context(), controller.RunInput{
			UserInput: req.UserInput,
			TaskID:    req.TaskID,
		})
		if err != nil {
			code, _ := jarvismodel.CodeOf(err)
			slog.Error("run failed", "task_id", req.TaskID, "code", code, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": code})
			return
		}

		c.JSON(http.StatusOK, runResponse{
			TaskID:     result.TaskID,
			FinalState: string(result.FinalState),
			LLMOutput:  result.LLMOutput,
		})
	}
}

// healthHandler reports `{status: ok|degraded, components: {...}}`. Cache
// reachability is the only component cheaply checked per request; storage
// handles are assumed healthy once opened at startup, since they fail
// closed at construction rather than degrading at steady state.
func healthHandler(c *cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := "ok"
		cacheStatus := "disabled"
		if c != nil {
			reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
			defer cancel()
			health := c.Health(reqCtx)
			if !health.Connected {
				cacheStatus = "degraded"
				status = "degraded"
			} else {
				cacheStatus = "ok"
			}
		}

		ctx.JSON(http.StatusOK, gin.H{
			"status": status,
			"components": gin.H{
				"llm":      "ok",
				"cache":    cacheStatus,
				"semantic": "ok",
				"episodic": "ok",
			},
		})
	}
}
