// Artifact staged for the concat sample module.
package concat
