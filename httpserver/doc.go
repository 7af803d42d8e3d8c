/*
Package httpserver is the process shell of the development TEE signer.

It hosts API handlers mounted with Mount behind access logging, and adds:

  - /livez and /readyz health checks
  - /drain and /undrain to take the instance out of rotation before shutdown
  - /debug/pprof when EnablePprof is set
  - a separate Prometheus listener on MetricsAddr

Typical use:

	srv, err := httpserver.New(cfg)
	if err != nil {
		return err
	}
	m := metrics.NewTEEMetrics(srv.MetricsRegistry(), common.PackageName)
	srv.Mount(teehandler.NewHandler(executor, signer, m, log))
	srv.RunInBackground()
	defer srv.Shutdown()
*/
package httpserver
