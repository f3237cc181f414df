// Artifact staged for the echo sample module. The handlers themselves are
// compiled into the invoker and registered under module "echo".
package echo
