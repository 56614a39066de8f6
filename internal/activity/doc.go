// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

/*
Package activity classifies camera frames into activity categories.

Each frame carries one primary pose (named 2-D keypoints with confidences)
and an unordered list of object detections. The engine turns consecutive
frames into per-joint kinematics, runs four heuristic detectors over them and
resolves a single category per frame:

	Pose + Objects -> Kinematics -> Posture/Proximity -> Detectors -> Resolver -> Aggregator

# Categories

  - fighting: fast, accelerating limb movement combined with an aggressive posture
  - fire: thermal appliances or smoke-like objects detected with high confidence
  - theft: hands interacting with suspicious objects near the person over time
  - suspicious: any joint moving faster than the fallback threshold
  - normal: none of the above

Resolution order is fixed (fighting, fire, theft, suspicious, normal) and the
first triggered category wins. Severity is derived from confidence: high above
0.8, medium otherwise, low for the suspicious fallback and none for normal.

# Aggregation

Classification runs on every frame and immediately updates the AlertState
latch. Logged Detections and Stats counters are throttled: a non-normal frame
is logged at most once per update interval (3 seconds by default), and the log
keeps only the ten most recent entries, newest first.

# Session lifecycle

An Engine is Idle until Start is called. Start and Stop both clear the
per-session state (velocities, theft timer, previous pose, log, alert and
throttle clock); only Reset clears Stats.

	eng := activity.New(activity.WithSinks(hub, archive))
	if err := eng.Start(ctx); err != nil {
		return err
	}
	res, err := eng.ProcessFrame(ctx, frame)

# Thread Safety

The classification state has a single writer. Engine serializes ProcessFrame
and the lifecycle methods with one mutex, so it may be shared between the HTTP
layer and the event bus consumer.
*/
package activity
