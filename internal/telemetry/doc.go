// Package telemetry — логи и метрики scauto.
//
// SetupLogger собирает slog.Logger с полями service/version, WithFlowcell и
// WithSample навешивают идентификаторы запуска. Логгер кладётся в context
// через WithLogger и достаётся FromContext в обработчиках сообщений.
//
// Метрики (scauto_samples_total, scauto_flowcell_duration_seconds и др.)
// регистрируются в prometheus default registry и отдаются на /metrics.
package telemetry
