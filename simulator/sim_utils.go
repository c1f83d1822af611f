package simulator

import (
	"math"
	"time"
)

// minFrameInterval 实时模式下帧间隔的下限
const minFrameInterval = time.Microsecond

// ticksFor 返回模拟 duration 秒所需的时间步数
func ticksFor(duration, tick float64) int {
	if duration <= 0 || tick <= 0 {
		return 0
	}
	return int(math.Round(duration / tick))
}

// frameInterval 实时模式下两次时间步之间的墙钟间隔
// 倍速只改变墙钟间隔，不改变每步的模拟时长
func frameInterval(tick, speed float64) time.Duration {
	if speed <= 0 {
		speed = 1
	}
	d := time.Duration(tick / speed * float64(time.Second))
	return max(d, minFrameInterval)
}
