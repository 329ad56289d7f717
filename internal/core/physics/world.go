package physics

import (
	"sync"

	"github.com/ByteArena/box2d"
	"github.com/zeusync/pebble/internal/core/model"
)

// bodyMeta is attached to every dynamic body as box2d user data.
type bodyMeta struct {
	id    uint64
	shape model.Shape
}

// World is the bounded rigid-body playfield. Every method takes the same
// mutex, so one goroutine may step and spawn while another reads snapshots
// or runs queries.
type World struct {
	mu sync.Mutex

	world  box2d.B2World
	tuning Tuning

	width      float64 // px
	height     float64 // px
	topInset   float64 // px
	configured bool

	statics []*box2d.B2Body
	nextID  uint64
}

// NewWorld creates an empty world. Zero fields of tuning take defaults.
func NewWorld(tuning Tuning) *World {
	return &World{
		world:  box2d.MakeB2World(box2d.MakeB2Vec2(0, DefaultGravity)),
		tuning: tuning.withDefaults(),
	}
}

// Tuning returns the effective parameters.
func (w *World) Tuning() Tuning {
	return w.tuning
}

// SetupBounds replaces the static floor and side walls for a screen of the
// given pixel size. Dynamic bodies are left untouched. There is no ceiling;
// topInset only moves the band IsTopBlocked inspects.
func (w *World) SetupBounds(width, height, topInset, bottomInset float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range w.statics {
		w.world.DestroyBody(b)
	}
	w.statics = w.statics[:0]

	w.width, w.height, w.topInset = width, height, max(topInset, 0)
	w.configured = width > 0 && height > 0
	if !w.configured {
		return
	}

	ppm := w.tuning.PixelsPerMeter
	widthM := width / ppm
	heightM := height / ppm

	// floor top surface sits at height - bottomInset
	floorY := heightM - bottomInset/ppm + boundaryThickness/2
	w.statics = append(w.statics,
		w.createStaticBox(widthM/2, floorY, widthM, boundaryThickness),
		w.createStaticBox(-boundaryThickness/2, heightM/2, boundaryThickness, heightM*wallHeightFactor),
		w.createStaticBox(widthM+boundaryThickness/2, heightM/2, boundaryThickness, heightM*wallHeightFactor),
	)
}

// Configured reports whether SetupBounds received a usable screen size.
func (w *World) Configured() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.configured
}

// CreateCircle inserts a rock of the given pixel radius.
func (w *World) CreateCircle(x, y, radius float64) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	ppm := w.tuning.PixelsPerMeter
	shape := box2d.MakeB2CircleShape()
	shape.M_radius = radius / ppm

	body, meta := w.createDynamicBody(x, y, model.Circle{Radius: radius})
	w.attach(body, &shape, circleMaterial)
	return meta.id
}

// CreateCompoundBlock inserts one body made of four fused squares laid out
// by the tetromino's offsets.
func (w *World) CreateCompoundBlock(x, y float64, t model.Tetromino, blockSize float64) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	ppm := w.tuning.PixelsPerMeter
	half := blockSize / 2 / ppm

	body, meta := w.createDynamicBody(x, y, model.CompoundBlock{BlockSize: blockSize, Tetromino: t})
	for _, off := range t.Offsets {
		shape := box2d.MakeB2PolygonShape()
		center := box2d.MakeB2Vec2(off.X*blockSize/ppm, off.Y*blockSize/ppm)
		shape.SetAsBoxFromCenterAndAngle(half, half, center, 0)
		w.attach(body, &shape, blockMaterial)
	}
	return meta.id
}

// CreateBox inserts a text bubble sized by the bubble's width and height.
func (w *World) CreateBox(x, y float64, bubble model.TextBubble) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	body, meta := w.createDynamicBody(x, y, bubble)
	w.attach(body, w.boxShape(bubble.Width, bubble.Height), textMaterial)
	return meta.id
}

// CreateImageBody inserts a box textured with the referenced image.
func (w *World) CreateImageBody(x, y, width, height float64, ref string) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	body, meta := w.createDynamicBody(x, y, model.Image{Width: width, Height: height, Ref: ref})
	w.attach(body, w.boxShape(width, height), imageMaterial)
	return meta.id
}

// IsRegionSafe reports whether no dynamic body center lies within radius
// pixels of (x, y).
func (w *World) IsRegionSafe(x, y, radius float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	probe := Vec2{X: x, Y: y}
	for b := w.world.GetBodyList(); b != nil; b = b.GetNext() {
		if !isDynamic(b) {
			continue
		}
		if Distance2V(w.pixelPosition(b), probe) < radius {
			return false
		}
	}
	return true
}

// IsTopBlocked reports whether a slow body sits inside the band that ends
// TopBand pixels below the top inset.
func (w *World) IsTopBlocked() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for b := w.world.GetBodyList(); b != nil; b = b.GetNext() {
		if !isDynamic(b) {
			continue
		}
		y := w.pixelPosition(b).Y
		if y <= 0 || y >= w.topInset+w.tuning.TopBand {
			continue
		}
		v := b.GetLinearVelocity()
		if Distance2(0, 0, v.X, v.Y) < w.tuning.SettledSpeed {
			return true
		}
	}
	return false
}

// Step advances the simulation by one fixed time step under the given
// gravity, then removes every dynamic body that sank below the screen.
// The horizontal component is negated to match the accelerometer's axes.
// Step is a no-op until bounds are configured.
func (w *World) Step(gravityX, gravityY float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.configured {
		return
	}

	w.world.SetGravity(box2d.MakeB2Vec2(-gravityX, gravityY))
	w.world.Step(w.tuning.TimeStep, w.tuning.VelocityIterations, w.tuning.PositionIterations)
	w.removeSunkBodies()
}

// Snapshot returns a freshly allocated copy of every dynamic body.
func (w *World) Snapshot() []model.RenderEntity {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]model.RenderEntity, 0, w.world.GetBodyCount())
	for b := w.world.GetBodyList(); b != nil; b = b.GetNext() {
		meta, ok := b.GetUserData().(*bodyMeta)
		if !ok || !isDynamic(b) {
			continue
		}
		pos := w.pixelPosition(b)
		out = append(out, model.RenderEntity{
			ID:       meta.id,
			X:        pos.X,
			Y:        pos.Y,
			Rotation: radToDeg(b.GetAngle()),
			Shape:    meta.shape,
		})
	}
	return out
}

// ClearDynamicBodies removes every obstacle, keeping the boundaries.
func (w *World) ClearDynamicBodies() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.destroyWhere(func(*box2d.B2Body) bool { return true })
}

// BodyCount returns the number of dynamic bodies.
func (w *World) BodyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for b := w.world.GetBodyList(); b != nil; b = b.GetNext() {
		if isDynamic(b) {
			n++
		}
	}
	return n
}

func (w *World) removeSunkBodies() {
	threshold := (w.height + w.tuning.SinkMargin) / w.tuning.PixelsPerMeter
	w.destroyWhere(func(b *box2d.B2Body) bool {
		return b.GetPosition().Y > threshold
	})
}

// destroyWhere removes matching dynamic bodies. Candidates are collected
// first because destroying unlinks the body list.
func (w *World) destroyWhere(match func(*box2d.B2Body) bool) {
	var doomed []*box2d.B2Body
	for b := w.world.GetBodyList(); b != nil; b = b.GetNext() {
		if isDynamic(b) && match(b) {
			doomed = append(doomed, b)
		}
	}
	for _, b := range doomed {
		w.world.DestroyBody(b)
	}
}

func (w *World) createDynamicBody(x, y float64, shape model.Shape) (*box2d.B2Body, *bodyMeta) {
	w.nextID++
	meta := &bodyMeta{id: w.nextID, shape: shape}

	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_dynamicBody
	def.Position = box2d.MakeB2Vec2(x/w.tuning.PixelsPerMeter, y/w.tuning.PixelsPerMeter)
	def.UserData = meta
	return w.world.CreateBody(&def), meta
}

func (w *World) createStaticBox(x, y, width, height float64) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_staticBody
	def.Position = box2d.MakeB2Vec2(x, y)
	body := w.world.CreateBody(&def)

	shape := box2d.MakeB2PolygonShape()
	shape.SetAsBox(width/2, height/2)
	body.CreateFixture(&shape, 0)
	return body
}

func (w *World) boxShape(width, height float64) *box2d.B2PolygonShape {
	ppm := w.tuning.PixelsPerMeter
	shape := box2d.MakeB2PolygonShape()
	shape.SetAsBox(width/2/ppm, height/2/ppm)
	return &shape
}

func (w *World) attach(body *box2d.B2Body, shape box2d.B2ShapeInterface, m material) {
	def := box2d.MakeB2FixtureDef()
	def.Shape = shape
	def.Density = m.density
	def.Friction = m.friction
	def.Restitution = m.restitution
	body.CreateFixtureFromDef(&def)
}

func (w *World) pixelPosition(b *box2d.B2Body) Vec2 {
	p := b.GetPosition()
	return Vec2{X: p.X * w.tuning.PixelsPerMeter, Y: p.Y * w.tuning.PixelsPerMeter}
}

func isDynamic(b *box2d.B2Body) bool {
	return b.GetType() == box2d.B2BodyType.B2_dynamicBody
}
