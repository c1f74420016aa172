package entity

// AnimationKey names one playable animation. Kept separate from Mode
// because several modes share one animation (e.g. MOVE and MOVE_FINISHED
// both play AnimMove while a path remains) and one mode's animation
// varies by Type (a cannon's move-cycle differs from a miner's).
type AnimationKey int

// AnimationKey values, grounded on
// original_source/gold/src/core/animation.cpp's ANIMATION_DATA table.
const (
	AnimIdle AnimationKey = iota
	AnimMove
	AnimMoveSlow
	AnimBlocked
	AnimAttack
	AnimBuild
	AnimMine
	AnimDeath
	AnimationKeyCount
)

// animFrame is one (hframe, duration-in-ticks) entry of an animation cycle.
type animFrame struct {
	hframe   int
	duration int
}

// animData is one animation's full frame cycle and loop count; -1 means
// play indefinitely, 0 means a single static pose with no looping.
type animData struct {
	frames []animFrame
	loops  int
}

const loopIndefinitely = -1

var animationTable [AnimationKeyCount]animData

func init() {
	animationTable[AnimIdle] = animData{frames: []animFrame{{0, 0}}, loops: 0}
	animationTable[AnimMove] = animData{
		frames: []animFrame{{1, 8}, {2, 8}, {3, 8}, {4, 8}},
		loops:  loopIndefinitely,
	}
	animationTable[AnimMoveSlow] = animData{
		frames: []animFrame{{1, 10}, {2, 10}, {3, 10}, {4, 10}},
		loops:  loopIndefinitely,
	}
	animationTable[AnimBlocked] = animData{frames: []animFrame{{0, 0}}, loops: 0}
	animationTable[AnimAttack] = animData{
		frames: []animFrame{{0, 6}, {1, 6}, {2, 6}},
		loops:  1,
	}
	animationTable[AnimBuild] = animData{
		frames: []animFrame{{0, 10}, {1, 10}},
		loops:  loopIndefinitely,
	}
	animationTable[AnimMine] = animData{
		frames: []animFrame{{0, 12}, {1, 12}},
		loops:  loopIndefinitely,
	}
	animationTable[AnimDeath] = animData{
		frames: []animFrame{{0, 8}, {1, 8}, {2, 8}, {3, 8}},
		loops:  1,
	}
}

// ExpectedAnimation returns the animation a given (Mode, Type) pair should
// be playing right now, per §4.3: "the entity's 'expected animation' is a
// function of mode and type."
func ExpectedAnimation(mode Mode, t Type) AnimationKey {
	switch mode {
	case ModeMove, ModeMoveFinished:
		if t == TypeCannon {
			return AnimMoveSlow
		}
		return AnimMove
	case ModeBlocked:
		return AnimBlocked
	case ModeAttack:
		return AnimAttack
	case ModeBuild:
		return AnimBuild
	case ModeMine:
		return AnimMine
	case ModeDeathFade:
		return AnimDeath
	default:
		return AnimIdle
	}
}

// StartAnimation (re)starts a from the beginning of key's cycle.
func StartAnimation(key AnimationKey) Animation {
	data := animationTable[key]
	return Animation{
		Key:            key,
		Frame:          0,
		TicksInFrame:   0,
		LoopsRemaining: data.loops,
	}
}

// AdvanceAnimation steps one tick's worth of animation time, reconciling
// the entity's expected animation with its current one (constructing a
// new one via StartAnimation if they differ) and then advancing the frame
// table, per §4.3.
func AdvanceAnimation(current Animation, mode Mode, t Type) Animation {
	expected := ExpectedAnimation(mode, t)
	if current.Key != expected {
		current = StartAnimation(expected)
	}
	if !current.Playing() {
		return current
	}

	data := animationTable[current.Key]
	if len(data.frames) == 0 {
		return current
	}
	frame := data.frames[current.Frame]
	current.TicksInFrame++
	if current.TicksInFrame < frame.duration {
		return current
	}
	current.TicksInFrame = 0
	current.Frame++
	if current.Frame >= len(data.frames) {
		current.Frame = 0
		if current.LoopsRemaining > 0 {
			current.LoopsRemaining--
			if current.LoopsRemaining == 0 {
				// Finished its final loop: park on the last frame, not
				// playing, per "loops_remaining == 0 <-> not playing."
				current.Frame = len(data.frames) - 1
			}
		}
	}
	return current
}

// Hframe returns the sprite sheet horizontal frame index for an
// animation's current frame, for the out-of-scope renderer to read.
func (a Animation) Hframe() int {
	data := animationTable[a.Key]
	if a.Frame < 0 || a.Frame >= len(data.frames) {
		return 0
	}
	return data.frames[a.Frame].hframe
}
