package interfaces

import "github.com/google/uuid"

// Subject 宿主中的具名主体（例如在线玩家）
//
// 实现由宿主应用提供。引用可能在宿主侧失效（主体下线），
// Valid 返回 false 后缓存会把它视为未命中。
type Subject interface {
	// Name 显示名，查找时不区分大小写
	Name() string

	// ID 唯一标识
	ID() uuid.UUID

	// Valid 引用是否仍指向宿主中的活跃对象
	//
	// 缓存命中检查在 I/O goroutine 上调用，实现必须可并发调用。
	Valid() bool
}

// World 宿主中的世界/区域
type World interface {
	// ID 世界标识
	ID() string

	// Valid 世界是否仍已加载，必须可并发调用
	Valid() bool
}

// Directory 宿主对象目录
//
// 所有方法只能在宿主线程上调用（经 Executor 调度）。
// 目录是宿主对象的唯一所有者，缓存只保存其返回的引用。
type Directory interface {
	// SubjectByName 按名称查找主体（不区分大小写）
	SubjectByName(name string) (Subject, bool)

	// SubjectByID 按唯一标识查找主体
	SubjectByID(id uuid.UUID) (Subject, bool)

	// World 按标识查找世界
	World(id string) (World, bool)

	// Worlds 列出所有已加载的世界
	Worlds() []World
}
