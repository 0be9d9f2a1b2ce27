// Package scheduler периодически запускает smoke-прогон сценария.
//
// Расписание задаётся cron-выражением (CG_SMOKE_CRON); каждый тик
// запускает полный прогон, если консоль в этот момент свободна.
// Занятая консоль — не ошибка, тик просто пропускается.
package scheduler
