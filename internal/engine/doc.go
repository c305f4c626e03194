// Package engine is the in-process simulation engine that scenario sessions
// are built on.
//
// The engine owns three registries and one clock:
//
//   - processes: named scheduling domains, run in priority order
//   - tasks: fixed-period model lists attached to one process
//   - events: periodic condition/action pairs, used for mode switching
//
// Time is kept in integer nanoseconds. A task with period P runs at 0, P, 2P,
// ... up to and including the configured stop time. Models exchange data only
// through [Message] values; a [Recorder] is a model that samples one message
// every time its task runs.
//
// # Lifecycle
//
//	eng := engine.New()
//	proc, _ := eng.CreateNewProcess("DynamicsProcess", engine.DefaultPriority)
//	task, _ := eng.CreateNewTask("DynamicsTask", engine.SecToNano(0.1))
//	proc.AddTask(task, engine.DefaultPriority)
//	_ = eng.AddModelToTask("DynamicsTask", model)
//	_ = eng.InitializeSimulation(ctx)
//	eng.ConfigureStopTime(engine.MinToNano(10))
//	_ = eng.ExecuteSimulation(ctx)
//
// The engine is single-threaded. Processes are logical scheduling domains
// interleaved on the caller's goroutine, not OS threads.
package engine
