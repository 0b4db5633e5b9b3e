package demohost

import (
	"context"

	"github.com/dep2p/go-hostrpc/internal/core/lookup"
	"github.com/dep2p/go-hostrpc/pkg/capability"
)

// ============================================================================
//                              world
// ============================================================================

// WorldModule 世界模块
//
//	world.list()               → 已加载世界
//	world.getTime(world)       → 世界时间
//	world.setTime(world, long) → 设置后的时间
type WorldModule struct {
	host     *Host
	resolver *lookup.Resolver
}

var _ capability.Module = (*WorldModule)(nil)

// NewWorldModule 创建世界模块
func NewWorldModule(h *Host, r *lookup.Resolver) *WorldModule {
	return &WorldModule{host: h, resolver: r}
}

func (m *WorldModule) Name() string { return "world" }

func (m *WorldModule) Operations() []capability.Operation {
	return []capability.Operation{
		{Name: "list", OnHost: true, Handler: m.list, Description: "Loaded worlds"},
		{
			Name:        "getTime",
			Params:      []capability.Param{capability.String("world")},
			OnHost:      true,
			Handler:     m.getTime,
			Description: "World time in ticks",
		},
		{
			Name:        "setTime",
			Params:      []capability.Param{capability.String("world"), capability.Long("ticks")},
			OnHost:      true,
			Handler:     m.setTime,
			Description: "Set world time in ticks",
		},
	}
}

func (m *WorldModule) list(ctx context.Context, _ capability.Args) (any, error) {
	worlds, err := m.resolver.Worlds(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(worlds))
	for _, w := range worlds {
		ids = append(ids, w.ID())
	}
	return ids, nil
}

func (m *WorldModule) realm(ctx context.Context, id string) (*Realm, error) {
	w, err := m.resolver.World(ctx, id)
	if err != nil {
		return nil, err
	}
	r, ok := w.(*Realm)
	if !ok {
		return nil, capability.InvalidInput("World not found: %s", id)
	}
	return r, nil
}

func (m *WorldModule) getTime(ctx context.Context, args capability.Args) (any, error) {
	r, err := m.realm(ctx, args.String(0))
	if err != nil {
		return nil, err
	}
	return map[string]any{"world": r.ID(), "time": r.Time()}, nil
}

func (m *WorldModule) setTime(ctx context.Context, args capability.Args) (any, error) {
	r, err := m.realm(ctx, args.String(0))
	if err != nil {
		return nil, err
	}
	return map[string]any{"world": r.ID(), "time": m.host.SetTime(r, args.Long(1))}, nil
}

// ============================================================================
//                              subject
// ============================================================================

// SubjectModule 主体模块
//
//	subject.list()                  → 在线主体
//	subject.info(identifier)        → 名称或 UUID 解析
//	subject.join(name, world)       → 加入
//	subject.leave(identifier)       → 离开
//	subject.move(identifier, world) → 切换世界
type SubjectModule struct {
	host     *Host
	resolver *lookup.Resolver
}

var _ capability.Module = (*SubjectModule)(nil)

// NewSubjectModule 创建主体模块
func NewSubjectModule(h *Host, r *lookup.Resolver) *SubjectModule {
	return &SubjectModule{host: h, resolver: r}
}

func (m *SubjectModule) Name() string { return "subject" }

func (m *SubjectModule) Operations() []capability.Operation {
	ident := capability.String("identifier")
	world := capability.String("world")
	return []capability.Operation{
		{Name: "list", OnHost: true, Handler: m.list, Description: "Online subjects"},
		{Name: "info", Params: []capability.Param{ident}, OnHost: true, Handler: m.info,
			Description: "Resolve a subject by name or UUID"},
		{Name: "join", Params: []capability.Param{capability.String("name"), world}, OnHost: true, Handler: m.join},
		{Name: "leave", Params: []capability.Param{ident}, OnHost: true, Handler: m.leave},
		{Name: "move", Params: []capability.Param{ident, world}, OnHost: true, Handler: m.move},
	}
}

// SubjectInfo 主体描述
type SubjectInfo struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	World string `json:"world"`
}

func describe(p *Player) SubjectInfo {
	return SubjectInfo{Name: p.Name(), ID: p.ID().String(), World: p.World()}
}

func (m *SubjectModule) player(ctx context.Context, identifier string) (*Player, error) {
	s, err := m.resolver.Subject(ctx, identifier)
	if err != nil {
		return nil, err
	}
	p, ok := s.(*Player)
	if !ok {
		return nil, capability.InvalidInput("Subject not found: %s", identifier)
	}
	return p, nil
}

func (m *SubjectModule) list(context.Context, capability.Args) (any, error) {
	players := m.host.Players()
	out := make([]SubjectInfo, 0, len(players))
	for _, p := range players {
		out = append(out, describe(p))
	}
	return out, nil
}

func (m *SubjectModule) info(ctx context.Context, args capability.Args) (any, error) {
	p, err := m.player(ctx, args.String(0))
	if err != nil {
		return nil, err
	}
	return describe(p), nil
}

func (m *SubjectModule) join(_ context.Context, args capability.Args) (any, error) {
	p, err := m.host.Join(args.String(0), args.String(1))
	if err != nil {
		return nil, err
	}
	return describe(p), nil
}

func (m *SubjectModule) leave(ctx context.Context, args capability.Args) (any, error) {
	p, err := m.player(ctx, args.String(0))
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": m.host.Leave(p)}, nil
}

func (m *SubjectModule) move(ctx context.Context, args capability.Args) (any, error) {
	p, err := m.player(ctx, args.String(0))
	if err != nil {
		return nil, err
	}
	if err := m.host.Move(p, args.String(1)); err != nil {
		return nil, err
	}
	return describe(p), nil
}
