package main

import (
	"context"
	"math/rand/v2"
	"net/http"
	"os"
	"syscall"

	"cogentcore.org/core/math32"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"github.com/setanarut/octree"
)

type config struct {
	Config      string `cli:"" env:"OCTREE_CONFIG"       help:"Octree config file (.toml, .json, .yaml)."`
	SaveConfig  string `cli:"" env:"OCTREE_SAVE_CONFIG"  help:"Write the octree config to this file when done."`
	Nodes       int    `cli:"" env:"OCTREE_NODES"        help:"Number of random boxes."`
	Frames      int    `cli:"" env:"OCTREE_FRAMES"       help:"Number of simulated frames."`
	MoveRatio   int    `cli:"" env:"OCTREE_MOVE_RATIO"   help:"Percentage of boxes moved each frame."`
	Seed        int    `cli:"" env:"OCTREE_SEED"         help:"Random seed."`
	MetricsAddr string `cli:"" env:"OCTREE_METRICS_ADDR" help:"Serve Prometheus metrics on this address after the run."`
	LogLevel    string `cli:"" env:"OCTREE_LOG_LEVEL"    help:"Log level (debug|info|warning|error)."`
	LogIndent   bool   `cli:"" env:"OCTREE_LOG_INDENT"   help:"Indent logs."`
	Help        bool   `cli:"" env:"-"                   help:"Show help."`
}

func main() {
	conf := config{
		Nodes:     5000,
		Frames:    60,
		MoveRatio: 10,
		Seed:      1,
		LogLevel:  logs.InfoLevel.String(),
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Populates an octree with random boxes, moves them around and runs culling and ray queries.").
		Options(&conf)
	cli.Load()

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	treeConf := octree.DefaultConfig()
	if conf.Config != "" {
		var err error
		if treeConf, err = octree.LoadConfig(conf.Config); err != nil {
			logs.Fatal(err)
		}
	}

	tree := octree.New(
		octree.WithBoundingBox(treeConf.Bounds.Box()),
		octree.WithNumLevels(treeConf.NumLevels),
	)

	sim := newSimulation(tree, conf.Seed)
	sim.spawn(conf.Nodes)

	for frame := 0; frame < conf.Frames && ctx.Err() == nil; frame++ {
		sim.step(frame, conf.MoveRatio)
	}

	if err := tree.CheckInvariants(); err != nil {
		logs.Fatal(errors.New("octree is inconsistent").Wrap(err))
	}

	stats := tree.Stats()
	logs.WithTag("octants", stats.Octants).
		WithTag("pool_capacity", stats.PoolCapacity).
		WithTag("nodes", stats.Nodes).
		WithTag("relocations", stats.Relocations).
		Info("simulation finished")

	if conf.SaveConfig != "" {
		if err := tree.Config().Save(conf.SaveConfig); err != nil {
			logs.Fatal(err)
		}
	}

	if conf.MetricsAddr != "" {
		serveMetrics(ctx, tree, conf.MetricsAddr)
	}
}

type simulation struct {
	tree   *octree.Octree
	rand   *rand.Rand
	bounds math32.Box3
	nodes  []*octree.BoxNode

	visible []octree.Node
	hits    []octree.RaycastResult
}

func newSimulation(tree *octree.Octree, seed int) *simulation {
	return &simulation{
		tree:   tree,
		rand:   rand.New(rand.NewPCG(uint64(seed), 0)),
		bounds: tree.BoundingBox(),
	}
}

func (s *simulation) randomBox() math32.Box3 {
	size := s.bounds.Size()
	p := math32.Vec3(
		s.bounds.Min.X+s.rand.Float32()*size.X,
		s.bounds.Min.Y+s.rand.Float32()*size.Y,
		s.bounds.Min.Z+s.rand.Float32()*size.Z,
	)
	half := size.MulScalar(0.001 + s.rand.Float32()*0.01)
	return math32.Box3{Min: p.Sub(half), Max: p.Add(half)}
}

func (s *simulation) spawn(n int) {
	for i := 0; i < n; i++ {
		flags := octree.FlagGeometry
		if i%10 == 0 {
			flags = octree.FlagLight
		}

		node := octree.NewBoxNode(s.randomBox(), flags)
		node.Name = uuid.NewString()
		s.nodes = append(s.nodes, node)
		s.tree.QueueUpdate(node)
	}
	s.tree.Update()

	logs.WithTag("nodes", s.tree.Count()).
		WithTag("octants", s.tree.Stats().Octants).
		Info("octree populated")
}

func (s *simulation) step(frame, moveRatio int) {
	for _, node := range s.nodes {
		if s.rand.IntN(100) < moveRatio {
			node.SetBoundingBox(s.randomBox())
		}
	}
	relocations := s.tree.Stats().Relocations
	s.tree.Update()

	// An orthographic view volume over the central quarter of the root.
	center := s.bounds.Center()
	half := s.bounds.Size().MulScalar(0.25)
	viewProj := math32.Matrix4{
		1 / half.X, 0, 0, 0,
		0, 1 / half.Y, 0, 0,
		0, 0, 1 / half.Z, 0,
		-center.X / half.X, -center.Y / half.Y, -center.Z / half.Z, 1,
	}
	s.visible = s.tree.FindNodes(s.visible, octree.NewFrustumVolume(&viewProj), octree.FlagGeometry)
	lights := s.tree.FindNodes(nil, octree.NewSphereVolume(center, half.X), octree.FlagLight)

	ray := math32.Ray{Origin: s.bounds.Min, Dir: s.bounds.Size()}
	s.hits = s.tree.Raycast(s.hits, ray, octree.FlagAll, math32.Infinity)
	closest := s.tree.RaycastSingle(ray, octree.FlagGeometry, math32.Infinity)

	entry := logs.WithTag("frame", frame).
		WithTag("relocated", s.tree.Stats().Relocations-relocations).
		WithTag("visible", len(s.visible)).
		WithTag("lights", len(lights)).
		WithTag("ray_hits", len(s.hits))
	if closest.Hit() {
		entry = entry.WithTag("closest", closest.Node.(*octree.BoxNode).Name).
			WithTag("closest_distance", closest.Distance)
	}
	entry.Debug("frame processed")
}

func serveMetrics(ctx context.Context, tree *octree.Octree, addr string) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(octree.NewCollector(tree, "demo"))

	var mux http.ServeMux
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: &mux}

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			logs.Warn(errors.Newf("shutting down the server failed").
				WithTag("addr", addr).
				Wrap(err))
		}
	}()

	logs.WithTag("addr", addr).Info("serving metrics")
	switch err := server.ListenAndServe(); err {
	case nil, http.ErrServerClosed:
		logs.WithTag("addr", addr).Info("stopping server")

	default:
		logs.Warn(errors.Newf("server stopped").
			WithTag("addr", addr).
			Wrap(err))
	}
}
